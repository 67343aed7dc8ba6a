// Package image builds the optional interrupt vector table prefix and
// concatenates it with the assembled body to produce the final flat
// binary image (spec.md §4.6; SPEC_FULL.md §5).
package image

import (
	"github.com/raek/rasm/symtab"
)

// VectorTable describes a device's interrupt vector layout: Count words,
// each an RJMP to the named handler if the program defines a label of
// that name, or a self-loop placeholder otherwise (spec.md §4.6, §9 Open
// Question; SPEC_FULL.md §5 resolves the question by making the table a
// value instead of a hardcoded constant, so a future device plugs in at
// this same seam).
type VectorTable struct {
	Count    int
	Handlers map[int]string // vector index -> handler label name, sparse
}

// ATmega328 is the 26-vector default device table SPEC_FULL.md §5
// specifies, naming every interrupt source an ATmega328-class part
// exposes. Slots 24 and 25 are reserved on this device and fall back to
// the same self-loop placeholder as any unregistered handler.
var ATmega328 = VectorTable{
	Count: 26,
	Handlers: map[int]string{
		0:  "RESET",
		1:  "INT0",
		2:  "INT1",
		3:  "PCINT0",
		4:  "PCINT1",
		5:  "PCINT2",
		6:  "WDT",
		7:  "TIMER2_COMPA",
		8:  "TIMER2_COMPB",
		9:  "TIMER2_OVF",
		10: "TIMER1_CAPT",
		11: "TIMER1_COMPA",
		12: "TIMER1_COMPB",
		13: "TIMER1_OVF",
		14: "TIMER0_OVF",
		15: "SPI_STC",
		16: "USART_RX",
		17: "USART_UDRE",
		18: "USART_TX",
		19: "ADC",
		20: "EE_READY",
		21: "ANALOG_COMP",
		22: "TWI",
		23: "SPM_READY",
	},
}

// selfLoopWord is "RJMP .-2" (k = (pc - (pc+2))/2 = -1), encoded
// directly since the placeholder targets no label (spec.md §4.6: "an
// unfilled vector slot is a direct self-loop, 0xCFFF").
const selfLoopWord uint16 = 0xCFFF

// VectorBytes returns the vt.Count*2 bytes of the vector table: for each
// slot with a handler name that env resolves to a label address, an RJMP
// from that slot to the handler; for every other slot (no handler
// registered, or the program never defined that label), the self-loop
// placeholder.
func VectorBytes(vt VectorTable, env *symtab.Env) []byte {
	out := make([]byte, 0, vt.Count*2)
	for slot := 0; slot < vt.Count; slot++ {
		out = append(out, vectorWord(vt, slot, env)...)
	}
	return out
}

func vectorWord(vt VectorTable, slot int, env *symtab.Env) []byte {
	name, ok := vt.Handlers[slot]
	if ok {
		if target, err := env.Lookup(name); err == nil {
			pc := int64(slot * 2)
			if k := (target - (pc + 2)) / 2; (target-(pc+2))%2 == 0 && k >= -2048 && k <= 2047 {
				w := uint16(0xC000) | (uint16(k) & 0x0FFF)
				return []byte{byte(w), byte(w >> 8)}
			}
		}
	}
	sw := selfLoopWord
	return []byte{byte(sw), byte(sw >> 8)}
}

// Build concatenates the vector table (when vt is non-nil) with body,
// producing the final flat image written to disk.
func Build(vt *VectorTable, env *symtab.Env, body []byte) []byte {
	if vt == nil {
		return body
	}
	out := make([]byte, 0, vt.Count*2+len(body))
	out = append(out, VectorBytes(*vt, env)...)
	out = append(out, body...)
	return out
}
