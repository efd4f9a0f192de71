/*
Package filesystem wraps os.Stat and os.Open with retries for stale NFS file
handles (ESTALE).

Photo libraries are often mounted over NFS, where a handle can go stale while
the server re-exports a directory. Only ESTALE triggers a retry; every other
error is returned immediately.

	f, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
	    return err
	}
	defer f.Close()

Retries back off exponentially from InitialBackoff up to MaxBackoff
(50ms, 100ms, 200ms with the defaults). Stale handles and retry outcomes are
counted in photo_curator_filesystem_stale_errors_total and
photo_curator_filesystem_retries_total.
*/
package filesystem
