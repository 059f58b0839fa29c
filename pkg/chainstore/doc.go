/*
Package chainstore persists trained chains from package chain.

It offers two interchangeable formats: a SQLite-backed Store that keeps any
number of named chains in one database, and a JSON export/import pair for
backups and transfer between processes. Both round-trip the full chain state
(order, vocabulary, and every weighted transition in first-seen order), so a
loaded chain generates exactly the same output as the saved one under the
same seeded random source.
*/
package chainstore
