/*
Package iplist validates and parses lists of IP addresses to be checked.

Address lists are plain text with one or more addresses per line, separated
by commas, semicolons, pipes, or whitespace. Anything that isn't a valid
address gets silently dropped, and so do duplicates.

Validation is strict: IPv4 addresses must be dotted quads with
octets in 0..255, and IPv6 addresses must be written in full eight-hextet
notation; the only compressed IPv6 forms accepted are "::" and "::1". Invalid
or duplicate addresses never reach a verifier, see [Validate].
*/
package iplist
