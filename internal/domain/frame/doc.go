/*
Package frame models the host browsing contexts that third-party sandboxes are
created in.

A Window exposes only what sandbox bootstrap needs: its parent chain (for
sentinel depth), its location (for origin checks and development ports), an
optional strong entropy source, and a read-only view of its document (for the
custom bootstrap URL declaration).

	top, _ := frame.New("https://publisher.example/article")
	child, _ := frame.New("https://publisher.example/inner", frame.WithParent(top))

	frame.Depth(top)   // 0
	frame.Depth(child) // 1
*/
package frame
