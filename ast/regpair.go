package ast

import "github.com/raek/rasm/token"

// RegPair is a register-pair literal ("r25:r24") appearing where an
// expression is expected, e.g. the right-hand side of ".equ dstpair =
// r1:r0". It evaluates to the pair packed as Lo | Hi<<8 so it can flow
// through the ordinary int64-valued symbol environment; the encoder's
// pairOperandLow unpacks this encoding back into register numbers at the point a
// register-pair operand is required.
type RegPair struct {
	Hi, Lo uint8
	At     token.Pos
}

func (r *RegPair) Eval(Env) (int64, error) {
	return int64(r.Lo) | int64(r.Hi)<<8, nil
}
func (r *RegPair) Pos() token.Pos { return r.At }
