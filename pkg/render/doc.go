// Package render turns DOT text into image files with Graphviz.
//
// # Overview
//
// A [Request] carries the DOT source, an output path, a layout [Engine] and
// an output [Format]. Engine and format are opaque strings handed to Graphviz
// unchanged; formats may use Graphviz's `format:renderer:library` selector
// syntax (e.g. "png:cairo:gd").
//
// Two [Invoker] implementations are provided:
//
//   - [ExecInvoker] runs the Graphviz executable named after the engine
//     (dot, neato, ...) with the DOT source on stdin. The directory holding the
//     executables is an explicit [Config] value; when it is empty the engine is
//     looked up on $PATH.
//   - [GraphvizInvoker] renders in-process with [github.com/goccy/go-graphviz],
//     which needs no Graphviz installation but only supports the formats that
//     library ships with (svg, png, jpg, dot).
//
// # Usage
//
//	inv := render.NewExecInvoker(render.Config{BinDir: "/opt/graphviz/bin"}, logger)
//	err := inv.Render(ctx, render.Request{
//	    DOT:        text,
//	    OutputPath: "deps.svg",
//	    Engine:     render.EngineDot,
//	    Format:     "svg",
//	})
//
// # Errors
//
// A missing executable is reported with code EXECUTABLE_NOT_FOUND and a
// message explaining how to install Graphviz. When the renderer runs but
// fails, the error has code RENDERER_FAILED and wraps a [*RendererError]
// holding the renderer's diagnostic output verbatim. Neither is retried.
package render
