package managers

import "errors"

// ErrNoKey is returned when a statement must filter on the primary key of
// an entity that declares none.
var ErrNoKey = errors.New("exprql: entity has no primary key")

// ErrNotAggregate is returned by NewAggregateManager for a clause that is
// not an aggregate function.
var ErrNotAggregate = errors.New("exprql: clause is not an aggregate")
