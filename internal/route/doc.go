// Package route decides, once per index id, which backend serves an index.
//
// A Provider is the host-facing facade. On the first operation for an index
// id it asks the Router for a route: the index definition's label and
// property name a configuration key, and the configuration value names
// either a registered engine (a delegate) or a legacy index. Established
// routes are cached for the life of the Provider; ids without a route are
// served by the default engine and retried on every access.
//
// Configuration values are token lists:
//
//	index-wrapper.Person.email = "name:person-email-index"
//	index-wrapper.Movie.title  = "name:in-memory,version:1.0"
package route
