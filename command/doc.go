// Package command exposes go-command compatible command handlers implementing
// the directory calls (counter increment/reset, set_username, update_profile,
// update_stats). Commands are wired by the service layer and can be invoked by
// any transport.
//
// Every command validates its whole input before opening a single
// types.StateStore Update unit. A failed call writes nothing and notifies
// nobody; a committed call logs one activity record and then fires one hook.
package command
