package symtab

// Builtins returns the fixed set of built-in names seeded into every
// Env: registers (added separately in New, as reserved markers only —
// they are never used as expression values), AVR SFR aliases, and bit
// position names used by the test corpus (spec.md §3, §4.3 step 1;
// SPEC_FULL.md §6). This is intentionally small: rasm carries no general
// AVR device database (spec.md §1 Non-goals).
func Builtins() map[string]int64 {
	b := map[string]int64{
		// I/O-space registers (usable with IN/OUT/CBI/SBI/SBIC/SBIS).
		"PINB":  0x03,
		"DDRB":  0x04,
		"PORTB": 0x05,
		"PINC":  0x06,
		"DDRC":  0x07,
		"PORTC": 0x08,
		"PIND":  0x09,
		"DDRD":  0x0A,
		"PORTD": 0x0B,

		// Extended data-space registers (LDS/STS only).
		"TIFR0":  0x35,
		"TIFR1":  0x36,
		"TIFR2":  0x37,
		"SPL":    0x3D,
		"SPH":    0x3E,
		"SREG":   0x3F,
		"EEARL":  0x41,
		"EEARH":  0x42,
		"EEDR":   0x40,
		"EECR":   0x3C,
		"TCCR0A": 0x44,
		"TCCR0B": 0x45,
		"TCNT0":  0x46,
		"OCR0A":  0x47,
		"OCR0B":  0x48,
		"TIMSK0": 0x6E,
		"ADCL":   0x78,
		"ADCH":   0x79,
		"ADCSRA": 0x7A,
		"ADMUX":  0x7C,
		"TCCR1A": 0x80,
		"TCCR1B": 0x81,
		"TCNT1L": 0x84,
		"TCNT1H": 0x85,
		"OCR1AL": 0x88,
		"OCR1AH": 0x89,
		"TIMSK1": 0x6F,
		"SPCR":   0x4C,
		"SPSR":   0x4D,
		"SPDR":   0x4E,
		"UCSR0A": 0xC0,
		"UCSR0B": 0xC1,
		"UCSR0C": 0xC2,
		"UBRR0L": 0xC4,
		"UBRR0H": 0xC5,
		"UDR0":   0xC6,

		// Bit positions within the registers above.
		"OCF1B":   2,
		"OCIE1B":  2,
		"TOIE1":   0,
		"ICIE1":   5,
		"OCIE1A":  1,
		"UMSEL00": 6,
		"TXEN0":   3,
		"RXEN0":   4,
		"UDRIE0":  5,
		"RXCIE0":  7,
		"TXCIE0":  6,
		"SPE":     6,
		"MSTR":    4,
		"SPIE":    7,
		"ADEN":    7,
		"ADSC":    6,
		"ADIE":    3,
	}
	return b
}
