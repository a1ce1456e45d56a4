// Package pkg provides the core libraries for fabricpdf.
//
// # Overview
//
// fabricpdf turns a Fabric.js canvas export into a PDF and publishes it to
// an artifact store. The pkg directory is organized into three areas:
//
//  1. Domain: [scene], [geom], [document], [render]
//  2. Infrastructure: [fetch], [cache], [store], [config], [observability]
//  3. Orchestration: [pipeline], [server]
//
// # Architecture
//
// The data flow of one conversion:
//
//	{"fabricJSON": {...}}
//	         ↓
//	    [scene] package (decode and validate objects)
//	         ↓
//	    [render] package (fetch images concurrently, draw in z-order)
//	         ↓
//	    [document] package (gofpdf page into a temporary file)
//	         ↓
//	    [store] package (cloudinary, gridfs or local)
//	         ↓
//	    public URL
//
// # Quick Start
//
// Render a scene into PDF bytes:
//
//	sc, err := scene.Parse(data)
//	if err != nil {
//	    return err
//	}
//	pdf, err := render.NewRenderer(nil, logger).RenderPDF(ctx, sc)
//
// Convert and upload, the way the HTTP server does:
//
//	runner := pipeline.NewRunner(renderer, artifactStore, logger)
//	result, err := runner.ConvertRequest(ctx, r.Body, pipeline.Options{})
//	fmt.Println(result.URL)
//
// # Main Packages
//
// [scene] - The canvas model. Objects are circle, rect, triangle, textbox
// and image; any other type decodes to an Unknown object that the renderer
// skips.
//
// [geom] - Effective geometry (scaled sizes, triangle vertices, text boxes)
// and color parsing.
//
// [document] - The Builder interface, its gofpdf implementation, and a
// Recorder used by tests and the inspect command.
//
// [render] - Draws a scene onto a Builder. Image fetches run in parallel;
// drawing commands are issued strictly in object order.
//
// [fetch] - Image download over HTTP(S) and data: URLs, with an optional
// [cache] in front.
//
// [store] - Artifact upload backends.
//
// [pipeline] - Decode, render to a temporary file, upload. Shared by the
// CLI and the server.
//
// [server] - chi router exposing POST /fabric/convert-to-pdf.
//
// [errors] - Error codes (FETCH_ERROR, RENDER_ERROR, STORE_ERROR, ...).
//
// # Testing
//
//	go test ./...                        # All tests
//	go test -tags integration ./pkg/...  # Include redis and MongoDB tests
package pkg
