package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/NOLA9TECH-AI/G-Bot/internal/gen"
)

// runConsole is the command window surface in a terminal build: each typed
// line is streamed through the generation backend, deltas printed as they
// arrive and source URLs listed after the answer.
func runConsole(ctx context.Context, in io.Reader, out io.Writer, streamer gen.Streamer, log zerolog.Logger) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		prompt := strings.TrimSpace(scanner.Text())
		if prompt == "" {
			continue
		}

		var sources []string
		err := streamer.StreamResponse(ctx, prompt, func(delta string, src []string) {
			fmt.Fprint(out, delta)
			sources = append(sources, src...)
		})
		if err != nil {
			log.Warn().Err(err).Msg("Console prompt failed")
			fmt.Fprintln(out, "(no answer)")
			continue
		}

		fmt.Fprintln(out)
		for _, s := range sources {
			fmt.Fprintln(out, "  source:", s)
		}
	}
	if err := scanner.Err(); err != nil {
		log.Debug().Err(err).Msg("Console input closed")
	}
}
