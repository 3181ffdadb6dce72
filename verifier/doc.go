/*
Package verifier implements the batch verification of IP address lists.

A [Verifier] works on one [Run] at a time: it looks up the addresses of a run
strictly one after another, in input order, and pauses between consecutive
lookups in order to stay within the reputation service's rate limits. There
is no pause after the last address.

Each item of a run starts out as pending, switches to checking while its
lookup is in flight, and then ends up as completed (with a report), errored
(with the lookup's error message), or stopped. A failed lookup only affects
its own item; the run carries on with the next address.

Cancelling a run never aborts the lookup in flight. Instead, its late result
gets discarded and the item becomes stopped, together with all still pending
items. Starting a new run implicitly cancels the previous one; the new run's
processing only begins after the previous processing loop has terminated.

Statistics are never stored but always tallied from a snapshot of the items,
so asking for them twice without intermediate progress yields identical
results.
*/
package verifier
