package discovery

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// TXTRecordMap is a map of TXT record key-value pairs.
type TXTRecordMap map[string]string

// EncodeControllerTXT creates the TXT records for info.
func EncodeControllerTXT(info *ControllerInfo) TXTRecordMap {
	txt := TXTRecordMap{
		TXTKeyID:      info.InstanceID,
		TXTKeyVersion: strconv.Itoa(info.Version),
	}
	if info.Name != "" {
		txt[TXTKeyName] = info.Name
	}
	return txt
}

// DecodeControllerTXT parses controller TXT records.
func DecodeControllerTXT(txt TXTRecordMap) (*ControllerInfo, error) {
	id, ok := txt[TXTKeyID]
	if !ok || id == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyID)
	}
	verStr, ok := txt[TXTKeyVersion]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyVersion)
	}
	ver, err := strconv.Atoi(verStr)
	if err != nil || ver <= 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidVersion, verStr)
	}
	return &ControllerInfo{
		InstanceID: id,
		Version:    ver,
		Name:       txt[TXTKeyName],
	}, nil
}

// TXTRecordsToStrings converts a TXTRecordMap to sorted "key=value" strings.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	result := make([]string, 0, len(txt))
	for k, v := range txt {
		result = append(result, k+"="+v)
	}
	slices.Sort(result)
	return result
}

// StringsToTXTRecords parses "key=value" strings. A bare key maps to "".
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap)
	for _, s := range strs {
		k, v, _ := strings.Cut(s, "=")
		if k != "" {
			txt[k] = v
		}
	}
	return txt
}

// InstanceName derives the advertised instance name for info.
func InstanceName(info *ControllerInfo) string {
	name := info.Name
	if name == "" {
		name = "HSPI-" + info.InstanceID
	}
	if len(name) > MaxInstanceNameLen {
		name = name[:MaxInstanceNameLen]
	}
	return name
}

// ValidateInstanceName checks that name fits an mDNS label.
func ValidateInstanceName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInstanceNameTooLong)
	}
	if len(name) > MaxInstanceNameLen {
		return ErrInstanceNameTooLong
	}
	return nil
}
