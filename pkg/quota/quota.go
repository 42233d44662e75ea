package quota

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/benaiah8/gatherly/pkg/follow"
	"github.com/benaiah8/gatherly/pkg/kv"
	"github.com/benaiah8/gatherly/pkg/notify"
	"github.com/benaiah8/gatherly/pkg/profile"
	"github.com/benaiah8/gatherly/pkg/rsvp"
)

// KnownSlots are the storage slots the data kit owns. The report covers
// exactly these; foreign slots living in the same storage are ignored.
var KnownSlots = []string{
	profile.Slot,
	follow.StatusSlot,
	follow.CountsSlot,
	rsvp.Slot,
	notify.Slot,
}

// SlotUsage is the usage of one storage slot.
type SlotUsage struct {
	Slot    string `json:"slot"`
	Entries int    `json:"entries"`
	Bytes   int    `json:"bytes"`
}

// Report is a point-in-time snapshot of cache storage usage.
type Report struct {
	Slots        []SlotUsage `json:"slots"`
	TotalEntries int         `json:"total_entries"`
	TotalBytes   int         `json:"total_bytes"`
}

// Inspect builds a usage report over the known slots. A slot that does not
// exist yet reports zero usage; an unreadable slot is skipped.
func Inspect(ctx context.Context, storage kv.Storage) Report {
	report := Report{Slots: make([]SlotUsage, 0, len(KnownSlots))}

	for _, slot := range KnownSlots {
		usage := SlotUsage{Slot: slot}

		data, err := storage.Load(ctx, slot)
		switch {
		case err == nil:
			usage.Bytes = len(data)
			usage.Entries = entryCount(data)
		case !errors.Is(err, kv.ErrNotFound):
			continue
		}

		report.Slots = append(report.Slots, usage)
		report.TotalEntries += usage.Entries
		report.TotalBytes += usage.Bytes
	}

	return report
}

// entryCount decodes just the slot's record envelope to count entries.
// Unparseable payloads count as zero entries but still report their bytes.
func entryCount(data []byte) int {
	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return 0
	}
	return len(records)
}
