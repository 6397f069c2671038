package storage

import "context"

// BundleMirror copies a completed export bundle to a remote object
// store so it can be fetched from another instance once the local
// export directory is cleaned up. The local zip under the results
// directory remains the primary, required path; a mirror failure is
// logged by the caller but never fails the export itself.
type BundleMirror interface {
	MirrorBundle(ctx context.Context, exportID, localZipPath string) (*UploadResult, error)
}

var _ BundleMirror = (*S3Uploader)(nil)
