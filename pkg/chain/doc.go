/*
Package chain implements an order-N Markov chain over interned text tokens,
built for lightweight procedural text generation.

A Chain is trained incrementally from raw text and produces new token
sequences by weighted random sampling over observed transitions. Tokenization
is pluggable through the Tokenizer interface, randomness is injected into
every generation call so output is reproducible under a seeded source, and
the full trained state can be copied out as a Snapshot for persistence (see
package chainstore).

A Chain is not safe for concurrent mutation. Concurrent read-only generation
is safe as long as no training or merge is in flight.
*/
package chain
