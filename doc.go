// Package veilstream provides the secure content distribution pipeline for
// creator-published media: client-side threshold encryption, on-chain
// entitlement proofs, and resilient blob storage I/O.
//
// Content is encrypted before it leaves the client and stored on a
// content-addressed blob network. Decryption is gated by on-chain proof of
// entitlement: ownership of the content's space, or an active subscription
// to it. Key custody is distributed across independent key servers, so no
// single operator can unilaterally decrypt or censor.
//
// # Basic Usage
//
// Create a client and load content:
//
//	client, err := veilstream.NewClient(
//	    veilstream.WithPublishers(publisherURLs),
//	    veilstream.WithAggregator(aggregatorURL),
//	    veilstream.WithKeyServers(servers, 2),
//	    veilstream.WithSigner(signer),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Public content: raw download, no wallet involved.
//	res, err := client.LoadContent(ctx, veilstream.ContentRequest{
//	    BlobID:      "b1",
//	    ContentType: "text/plain",
//	})
//
//	// Gated content: decrypted via entitlement proof.
//	res, err = client.LoadContent(ctx, veilstream.ContentRequest{
//	    BlobID:     blobID,
//	    ResourceID: resourceID,
//	    Locked:     true,
//	    Role:       veilstream.RoleSubscriber,
//	    AuthID:     subscriptionID,
//	})
//
// # Wallet Signing
//
// Gated decryption needs a Signer. Session keys amortize wallet prompts:
// one signature authorizes every decrypt for the same (address, namespace)
// pair until the key's TTL elapses.
//
// # Upload
//
// Publishing reverses the flow: plaintext is optionally compressed,
// encrypted to the namespace, and stored:
//
//	receipt, err := client.UploadContent(ctx, file, namespaceID,
//	    veilstream.WithEncryption(true),
//	    veilstream.WithUploadCompression(true))
//
// Uploads fail closed: when encryption is requested but no key servers are
// configured, the upload errors rather than silently storing plaintext.
package veilstream
