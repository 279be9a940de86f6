/*
Package sandbox manages the third-party sandboxes created in host windows.

Creating a sandbox reads the embed element, mints a sentinel, resolves the
bootstrap URL and builds the frame name handed to the iframe:

	{"host":"d-123.ampproject.net","bootstrap":".../f.js","type":"a9","count":1,"attributes":{...}}

count is a per-type counter owned by the Manager and reset with ResetCounters.

Inbound channel traffic goes through Dispatch: foreign and malformed traffic,
unknown message types and messages whose sentinel matches no sandbox on the
receiving window are dropped.
*/
package sandbox
