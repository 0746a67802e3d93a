package discovery

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestControllerTXTRoundTrip(t *testing.T) {
	info := &ControllerInfo{InstanceID: "a1b2", Name: "Main House", Version: ProtocolVersion}
	strs := TXTRecordsToStrings(EncodeControllerTXT(info))

	want := []string{"id=a1b2", "name=Main House", "ver=1"}
	if !reflect.DeepEqual(strs, want) {
		t.Fatalf("TXT strings = %v, want %v", strs, want)
	}

	got, err := DecodeControllerTXT(StringsToTXTRecords(strs))
	if err != nil {
		t.Fatalf("DecodeControllerTXT() error = %v", err)
	}
	if *got != *info {
		t.Errorf("decoded = %+v, want %+v", got, info)
	}
}

func TestEncodeControllerTXTOmitsEmptyName(t *testing.T) {
	txt := EncodeControllerTXT(&ControllerInfo{InstanceID: "x", Version: 1})
	if _, ok := txt[TXTKeyName]; ok {
		t.Errorf("name key present for unnamed controller: %v", txt)
	}
}

func TestDecodeControllerTXTErrors(t *testing.T) {
	tests := []struct {
		name string
		txt  TXTRecordMap
		want error
	}{
		{"missing id", TXTRecordMap{TXTKeyVersion: "1"}, ErrMissingRequired},
		{"empty id", TXTRecordMap{TXTKeyID: "", TXTKeyVersion: "1"}, ErrMissingRequired},
		{"missing version", TXTRecordMap{TXTKeyID: "x"}, ErrMissingRequired},
		{"non-numeric version", TXTRecordMap{TXTKeyID: "x", TXTKeyVersion: "one"}, ErrInvalidVersion},
		{"zero version", TXTRecordMap{TXTKeyID: "x", TXTKeyVersion: "0"}, ErrInvalidVersion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeControllerTXT(tt.txt)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestStringsToTXTRecords(t *testing.T) {
	got := StringsToTXTRecords([]string{"id=x", "flag", "eq=a=b", "=orphan"})
	want := TXTRecordMap{"id": "x", "flag": "", "eq": "a=b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("StringsToTXTRecords() = %v, want %v", got, want)
	}
}

func TestInstanceName(t *testing.T) {
	if got := InstanceName(&ControllerInfo{InstanceID: "42"}); got != "HSPI-42" {
		t.Errorf("unnamed instance = %q", got)
	}
	if got := InstanceName(&ControllerInfo{InstanceID: "42", Name: "Den"}); got != "Den" {
		t.Errorf("named instance = %q", got)
	}
	long := InstanceName(&ControllerInfo{Name: strings.Repeat("n", 80)})
	if len(long) != MaxInstanceNameLen {
		t.Errorf("long name length = %d, want %d", len(long), MaxInstanceNameLen)
	}
	if err := ValidateInstanceName(long); err != nil {
		t.Errorf("ValidateInstanceName(truncated) = %v", err)
	}
	if err := ValidateInstanceName(""); err == nil {
		t.Error("ValidateInstanceName(\"\") should fail")
	}
}

func TestControllerServiceAddress(t *testing.T) {
	svc := &ControllerService{Host: "hub.local.", Port: 10400}
	if got := svc.Address(); got != "hub.local.:10400" {
		t.Errorf("Address() without addrs = %q", got)
	}
	svc.Addresses = []string{"fe80::1", "192.168.1.2"}
	if got := svc.Address(); got != "[fe80::1]:10400" {
		t.Errorf("Address() = %q", got)
	}
}
