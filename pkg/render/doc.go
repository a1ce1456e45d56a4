// Package render draws a Fabric.js [scene.Scene] onto a [document.Builder].
//
// # Overview
//
// [Renderer.Render] runs in four steps:
//
//  1. Plan: every object is validated (colors, font sizes) and turned into
//     a task. An invalid object aborts the render with RENDER_ERROR before
//     any image is fetched. Objects of an unsupported type are logged and
//     skipped.
//  2. Background: a non-empty scene background fills the page first.
//  3. Fan-out: tasks run on an errgroup bounded by [Renderer.Concurrency].
//     Shape tasks finish immediately; image tasks download their source
//     through the [fetch.Fetcher]. Each task leaves its draw operation at
//     its object index.
//  4. Commit: once every task is done, failures are joined and returned
//     without drawing anything else. Otherwise the operations are applied
//     in index order and the document is finalized.
//
// Committing after the barrier keeps the scene's z-order (later objects on
// top) no matter in which order the downloads complete.
//
// # Usage
//
//	r := render.NewRenderer(fetch.New(fetch.Options{}), logger)
//	pdf, err := r.RenderPDF(ctx, sc)
//
// Render into any builder, for example a recorder for a dry run:
//
//	rec := document.NewRecorder()
//	err := r.Render(ctx, sc, rec)
//	for _, cmd := range rec.Commands() { ... }
//
// [scene.Scene]: github.com/matzehuels/fabricpdf/pkg/scene.Scene
// [document.Builder]: github.com/matzehuels/fabricpdf/pkg/document.Builder
// [fetch.Fetcher]: github.com/matzehuels/fabricpdf/pkg/fetch.Fetcher
package render
