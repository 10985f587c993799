package runstatus

import "testing"

func TestIsBusy(t *testing.T) {
	busy := []string{CheckingForUpdate, UpdatingLauncher, Restarting, " loading "}
	for _, status := range busy {
		if !IsBusy(status) {
			t.Fatalf("IsBusy(%q) = false", status)
		}
	}
	for _, status := range []string{Ready, Failed, "", "something else"} {
		if IsBusy(status) {
			t.Fatalf("IsBusy(%q) = true", status)
		}
	}
}
