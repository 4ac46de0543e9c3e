// Package state provides the in-memory implementation of types.StateStore, the
// unit-of-work contract over the four directory tables (profiles, usernames,
// stats, counter). SQL and key-value backends live in bunstore and badgerstore;
// every backend is checked by the statetest conformance suite.
package state
