/*
Package abuseipdb implements the reputation lookup of single IP addresses
against the [AbuseIPDB] API v2 “check” endpoint.

	         +--------+
	string-->| Client +-->*types.Report | *LookupError
	         +--------+

A [Client] injects the API key, sends exactly one request per lookup, and
classifies failures into the [Kind] of a [LookupError]: rate-limited (HTTP
429), unauthorized (401), invalid format (422), network errors, and anything
else as unknown. Clients never retry.

Optional response fields the service leaves out or sets to null end up as
empty strings (or a nil timestamp) in the resulting report; they are never
treated as errors.

[AbuseIPDB]: https://www.abuseipdb.com/
*/
package abuseipdb
