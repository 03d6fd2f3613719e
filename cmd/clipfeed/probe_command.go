package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"clipfeed/internal/config"
	"clipfeed/internal/media/ffprobe"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "probe <clip>",
		Short: "Inspect a clip with ffprobe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			path, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve clip path: %w", err)
			}

			probeCtx, cancel := context.WithTimeout(cmd.Context(), cfg.DecodeTimeout())
			defer cancel()

			result, err := ffprobe.Inspect(probeCtx, cfg.FFprobeBinary(), path)
			if err != nil {
				return err
			}

			printer := message.NewPrinter(language.English)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Clip:      %s\n", path)
			fmt.Fprintf(out, "Container: %s, %.3fs, %s bytes\n",
				result.Format.FormatName,
				result.DurationSeconds(),
				printer.Sprintf("%d", result.SizeBytes()))
			fmt.Fprintf(out, "Streams:   %d video, %d audio\n", result.VideoStreamCount(), result.AudioStreamCount())

			rows := make([][]string, 0, len(result.Streams))
			for _, stream := range result.Streams {
				rows = append(rows, []string{
					strconv.Itoa(stream.Index),
					stream.CodecType,
					stream.CodecName,
					streamDetail(stream),
					stream.TimeBaseRaw,
					stream.NBFrames,
				})
			}
			tbl := renderTable(
				[]string{"#", "Type", "Codec", "Detail", "Time base", "Frames"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
			)
			fmt.Fprintln(out, tbl)
			return nil
		},
	}
}

func streamDetail(stream ffprobe.Stream) string {
	switch stream.CodecType {
	case "video":
		return fmt.Sprintf("%dx%d @ %.2f fps", stream.Width, stream.Height, stream.FrameRate())
	case "audio":
		return fmt.Sprintf("%d Hz, %d ch", stream.SampleRateHz(), stream.Channels)
	default:
		return ""
	}
}
