package board

// IsDraw returns true if the position is drawn by any of the rules the
// arbiter enforces: stalemate, the 50-move rule, insufficient material, or
// threefold repetition.
func (p *Position) IsDraw() bool {
	if p.IsStalemate() {
		return true
	}
	if p.HalfMoveClock >= 100 {
		return true
	}
	if p.IsInsufficientMaterial() {
		return true
	}
	return p.IsThreefoldRepetition()
}

// IsInsufficientMaterial returns true if neither side has enough material to
// deliver checkmate: K vs K, or K+single-minor vs K. K+N+N vs K is excluded
// on purpose — two knights cannot force mate against a lone king either, but
// forcing it is possible if the defender cooperates, so it is not a rules
// draw.
func (p *Position) IsInsufficientMaterial() bool {
	if p.Pieces[White][Pawn]|p.Pieces[Black][Pawn] != 0 ||
		p.Pieces[White][Rook]|p.Pieces[Black][Rook] != 0 ||
		p.Pieces[White][Queen]|p.Pieces[Black][Queen] != 0 {
		return false
	}

	wMinors := p.Pieces[White][Knight].PopCount() + p.Pieces[White][Bishop].PopCount()
	bMinors := p.Pieces[Black][Knight].PopCount() + p.Pieces[Black][Bishop].PopCount()

	if wMinors == 0 && bMinors == 0 {
		return true // K vs K
	}
	if wMinors <= 1 && bMinors == 0 {
		return true // K+minor vs K
	}
	if bMinors <= 1 && wMinors == 0 {
		return true // K vs K+minor
	}
	return false
}

// IsThreefoldRepetition returns true if the current position's hash has
// occurred at least three times total (counting the current occurrence),
// scanning the history stack backward. The scan stops as soon as it reaches
// a history entry whose recorded half-move clock is 0: that entry followed
// an irreversible move (a pawn push or a capture), and no position on the
// far side of an irreversible move can ever repeat the present one.
func (p *Position) IsThreefoldRepetition() bool {
	if p.HalfMoveClock < 4 || p.histTop < 4 {
		return false
	}

	count := 1
	limit := p.histTop - p.HalfMoveClock
	if limit < 0 {
		limit = 0
	}

	for i := p.histTop - 1; i >= limit; i-- {
		hist := p.history[i]
		if hist.Zobrist == p.Hash {
			count++
			if count >= 3 {
				return true
			}
		}
		if hist.HalfMoveClock == 0 {
			break
		}
	}

	return false
}

// GameOver returns true if the game has ended (checkmate, stalemate, or a
// draw by one of the arbiter's other rules).
func (p *Position) GameOver() bool {
	return p.IsCheckmate() || p.IsDraw()
}
