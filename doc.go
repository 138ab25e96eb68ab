/*
Package ptui renders image previews for a terminal file browser.

A preview is either ANSI text produced by a converter (chafa, jp2a or the
built-in halfblocks renderer) or a pixel image drawn through a terminal
graphics protocol (Kitty or iTerm2 inline images). The terminal is probed
once at startup and the result decides which of the two is used.

Main pieces:

  - Detect probes TERM / TERM_PROGRAM and the cell size in pixels
  - Loader decodes images close to the display size, subsampling JPEGs
  - Converter wraps the external tools behind an injectable CommandRunner
  - KittyProtocol and ITerm2Protocol encode images for a cell area
  - PreviewManager routes entries to a preview and caches image results
  - PreviewWorker renders image previews off the UI goroutine
  - Slideshow and TransitionAnimator drive the full-screen slideshow

Basic Usage:

	capability := ptui.Detect(ptui.DetectOptions{})
	manager := ptui.NewPreviewManager(config.Default(), ptui.ManagerOptions{
	    Capability: capability,
	})

	item, err := files.NewFileItem("photo.jpg")
	if err != nil {
	    log.Fatal(err)
	}
	content := manager.Render(ptui.PreviewRequest{Item: item, Width: 80, Height: 24})

Graphical content is drawn after the text frame has been written:

	if content.IsGraphical() {
	    seq, err := ptui.Overlay(content.Protocol, ptui.Rect{X: 20, Y: 1, Width: 80, Height: 24})
	    if err != nil {
	        log.Fatal(err)
	    }
	    fmt.Print(seq)
	}

The Kitty encoder sends RGBA pixels (f=32) in base64 chunks of 4096 bytes and
always clears earlier placements first. The iTerm2 encoder sends a PNG with an
explicit cell size. Sixel is recognised by the probe but has no encoder; such
terminals get text previews.

Previews are not safe for concurrent use. Everything except PreviewJob.Run
must be called from the goroutine that owns the manager.
*/
package ptui
