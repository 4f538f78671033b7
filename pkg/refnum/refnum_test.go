/*****************************************************************************************************************/

package refnum

/*****************************************************************************************************************/

import "testing"

/*****************************************************************************************************************/

func TestToTextNone(t *testing.T) {
	if got := ToText(0); got != "NONE" {
		t.Fatalf("expected NONE, got %s", got)
	}
}

/*****************************************************************************************************************/

func TestToTextGSC(t *testing.T) {
	// leading digit 1 dispatches to GSC; the next digit (1=north,
	// 2=south) selects the hemisphere prefix, and the remaining digits
	// are carried through unchanged.
	if got := ToText(1120345); got != "N20345" {
		t.Fatalf("expected N20345, got %s", got)
	}

	if got := ToText(1220345); got != "S20345" {
		t.Fatalf("expected S20345, got %s", got)
	}
}

/*****************************************************************************************************************/

func TestToTextKepler(t *testing.T) {
	if got := ToText(2123); got != "K123" {
		t.Fatalf("expected K123, got %s", got)
	}
}

/*****************************************************************************************************************/

func TestToTextUnhandledGaia(t *testing.T) {
	if got := ToText(712345); got != "UNHANDLED-GAIA1" {
		t.Fatalf("expected UNHANDLED-GAIA1, got %s", got)
	}

	if got := ToText(812345); got != "UNHANDLED-GAIA2" {
		t.Fatalf("expected UNHANDLED-GAIA2, got %s", got)
	}
}

/*****************************************************************************************************************/

func TestToTextAtlas(t *testing.T) {
	if got := ToText(9123); got != "ATLAS2_123" {
		t.Fatalf("expected ATLAS2_123, got %s", got)
	}
}

/*****************************************************************************************************************/

func TestToTextDaschApassMalformed(t *testing.T) {
	if got := ToText(34); got != "MALFORMED-DASCH/APASS" {
		t.Fatalf("expected malformed sentinel, got %s", got)
	}
}

/*****************************************************************************************************************/

func TestToTextDaschApassWellFormed(t *testing.T) {
	// code 3, ra="123456", tenth='7', sign digit '1' => '+', dec="234567".
	got := ToText(312345671234567)
	want := "DASCH_J123456.7+234567"
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

/*****************************************************************************************************************/

func TestToTextNeverReturnsEmpty(t *testing.T) {
	// ToText never fails: for every leading digit 1-9 it returns some
	// non-empty text (a catalog name or one of its sentinel strings).
	for d := uint64(1); d <= 9; d++ {
		got := ToText(d*100 + 23)
		if got == "" {
			t.Fatalf("expected non-empty text for refnum with leading digit %d", d)
		}
	}
}

/*****************************************************************************************************************/
