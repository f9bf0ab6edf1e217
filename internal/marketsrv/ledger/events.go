package ledger

import (
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/veristream/veristream-internal/pkg/types"
)

// Event names emitted by the marketplace contract.
const (
	EventContentRegistered = "ContentRegistered"
	EventLicenseIssued     = "LicenseIssued"
)

// ParseAssignedID recovers the ledger-assigned identifier from the event
// data of a confirmed transaction. The receipt carries a JSON array of
// events; the one keyed by the selector for eventName holds the new id as
// its first data felt.
func ParseAssignedID(eventData []byte, eventName string) (types.LedgerID, error) {
	if len(eventData) == 0 {
		return 0, fmt.Errorf("empty event data")
	}
	selector := EventSelector(eventName)
	events := gjson.GetBytes(eventData, "events")
	if !events.Exists() {
		// Some gateways return the event list directly.
		events = gjson.ParseBytes(eventData)
	}
	var idFelt string
	events.ForEach(func(_, ev gjson.Result) bool {
		if ev.Get("keys.0").String() != selector {
			return true
		}
		idFelt = ev.Get("data.0").String()
		return false
	})
	if idFelt == "" {
		return 0, fmt.Errorf("no %s event in transaction receipt", eventName)
	}
	id, err := DecodeUint(idFelt)
	if err != nil {
		return 0, fmt.Errorf("malformed %s event: %w", eventName, err)
	}
	return types.LedgerID(id), nil
}
