package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/hspi-sdk/hspi-go/pkg/log"
)

// RunExport writes the matching events of path as JSON lines or CSV to
// output, or to stdout when output is empty.
func RunExport(path, format, output string, opts FilterOptions) error {
	filter, err := opts.Filter()
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "jsonl":
		enc := json.NewEncoder(w)
		return eachEvent(path, filter, func(event log.Event) error {
			if err := enc.Encode(event); err != nil {
				return fmt.Errorf("failed to encode event: %w", err)
			}
			return nil
		})
	case "csv":
		return exportCSV(path, filter, w)
	default:
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}
}

func exportCSV(path string, filter log.Filter, w io.Writer) error {
	cw := csv.NewWriter(w)

	header := []string{"timestamp", "connection_id", "plugin_id", "direction", "role", "layer", "category", "type", "message_id", "operation", "ref", "status"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	err := eachEvent(path, filter, func(event log.Event) error {
		var msgID, op, ref, status string
		if msg := event.Message; msg != nil {
			msgID = strconv.FormatUint(uint64(msg.MessageID), 10)
			if msg.Operation != nil {
				op = msg.Operation.String()
			}
			if msg.Ref != 0 {
				ref = strconv.Itoa(msg.Ref)
			}
			if msg.Status != nil {
				status = msg.Status.String()
			}
		}
		row := []string{
			event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
			event.ConnectionID,
			event.PluginID,
			event.Direction.String(),
			event.LocalRole.String(),
			event.Layer.String(),
			event.Category.String(),
			typeLabel(event),
			msgID,
			op,
			ref,
			status,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
