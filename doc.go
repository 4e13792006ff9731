// Package storage is the Go client SDK for the Tide Cloud storage service.
//
// It exposes the service's shares, directories, files, blobs, and tables over
// the Tide Cloud REST protocol, and embeds a chunked transfer engine for
// large uploads and downloads: payloads are split into bounded-size ranges,
// transferred with bounded concurrency and backpressure, verified with MD5,
// and finalized only after every range has committed.
//
// Basic usage:
//
//	client, err := storage.New("myaccount", accountKey)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := client.UploadFile(ctx, "myshare", "backups/db.tar", "/tmp/db.tar",
//	    storage.WithStoreContentMD5(true),
//	    storage.WithUploadParallelism(4),
//	)
package storage
