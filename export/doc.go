/*
Package export renders the items of a verification run for downloading.

[Malicious] and [MaliciousDocument] list the malicious addresses (more than
[types.MaliciousThreshold] reports) as plain text lines, while [CSV] writes all
items as comma-separated values. [Select] narrows item lists down by their
status or verdict, and by a search term.
*/
package export
