/*
Package types defines ipsleuth's information model. Which is rather simple and
mainly revolves around the [Item], an IP address together with its verification
[Status] and, once the reputation lookup succeeded, its [Report].

# Status Lifecycle

Every address enters a run as [Pending]. The run then moves it to [Checking]
while its lookup is in flight and finally to one of the terminal statuses
[Completed], [Errored], or [Stopped]. Terminal statuses never change again.

	Pending --> Checking --> Completed
	   |           |    \--> Errored
	   \-----------+-------> Stopped

# Verdicts

Completed addresses are classified solely by their total number of abuse
reports: none is [Clean], up to and including [MaliciousThreshold] is a
[Warning], and everything above is [Malicious]. Addresses that are not
completed are always [Unrated]; in particular, a pending address without any
reports is never clean.

# Value Semantics

Items are handed out as values (snapshots), so that renderers and other
readers can work on them at leisure while the verification goroutine keeps on
updating the run in the background. [Stats] are never kept separately but
always recomputed from a snapshot via [Tally].
*/
package types
