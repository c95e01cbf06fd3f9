package pattern

import "FinStream/internal/model"

// Func evaluates a rule over every bar: +100 bullish, -100 bearish, 0 none.
type Func func(bars []model.PriceBar) []int

// barRule checks a single bar given its predecessors.
type barRule func(bars []model.PriceBar, i int) int

func perBar(minIdx int, rule barRule) Func {
	return func(bars []model.PriceBar) []int {
		out := make([]int, len(bars))
		for i := minIdx; i < len(bars); i++ {
			out[i] = rule(bars, i)
		}
		return out
	}
}

var (
	Hammer             = perBar(3, hammer)
	InvertedHammer     = perBar(3, invertedHammer)
	HangingMan         = perBar(3, hangingMan)
	ShootingStar       = perBar(3, shootingStar)
	Engulfing          = perBar(1, engulfing)
	Piercing           = perBar(1, piercing)
	DarkCloudCover     = perBar(1, darkCloudCover)
	MorningStar        = perBar(2, morningStar)
	EveningStar        = perBar(2, eveningStar)
	ThreeWhiteSoldiers = perBar(2, threeWhiteSoldiers)
	ThreeBlackCrows    = perBar(2, threeBlackCrows)
)

func hammer(bars []model.PriceBar, i int) int {
	if hammerShape(parts(bars[i])) && downtrend(bars, i) {
		return 100
	}
	return 0
}

func invertedHammer(bars []model.PriceBar, i int) int {
	if invertedShape(parts(bars[i])) && downtrend(bars, i) {
		return 100
	}
	return 0
}

func hangingMan(bars []model.PriceBar, i int) int {
	if hammerShape(parts(bars[i])) && uptrend(bars, i) {
		return -100
	}
	return 0
}

func shootingStar(bars []model.PriceBar, i int) int {
	if invertedShape(parts(bars[i])) && uptrend(bars, i) {
		return -100
	}
	return 0
}

// engulfing: the current body covers the previous opposite-colored body.
func engulfing(bars []model.PriceBar, i int) int {
	prev, cur := bars[i-1], bars[i]
	pp, cp := parts(prev), parts(cur)
	if cp.Body <= pp.Body {
		return 0
	}
	switch {
	case pp.IsBear && cp.IsBull && cur.Open <= prev.Close && cur.Close >= prev.Open:
		return 100
	case pp.IsBull && cp.IsBear && cur.Open >= prev.Close && cur.Close <= prev.Open:
		return -100
	}
	return 0
}

// piercing: after a bearish bar, open below its low and close above its midpoint.
func piercing(bars []model.PriceBar, i int) int {
	prev, cur := bars[i-1], bars[i]
	pp, cp := parts(prev), parts(cur)
	if pp.IsBear && cp.IsBull && cur.Open < prev.Low && cur.Close >= pp.Mid && cur.Close < prev.Open {
		return 100
	}
	return 0
}

func darkCloudCover(bars []model.PriceBar, i int) int {
	prev, cur := bars[i-1], bars[i]
	pp, cp := parts(prev), parts(cur)
	if pp.IsBull && cp.IsBear && cur.Open > prev.High && cur.Close <= pp.Mid && cur.Close > prev.Open {
		return -100
	}
	return 0
}

func morningStar(bars []model.PriceBar, i int) int {
	first, star, third := bars[i-2], bars[i-1], bars[i]
	fp, sp, tp := parts(first), parts(star), parts(third)
	if !fp.IsBear || fp.bodyPct() < longBodyPct {
		return 0
	}
	if sp.bodyPct() > starBodyPct || max(star.Open, star.Close) >= first.Close {
		return 0
	}
	if tp.IsBull && tp.bodyPct() >= longBodyPct && third.Close > fp.Mid {
		return 100
	}
	return 0
}

func eveningStar(bars []model.PriceBar, i int) int {
	first, star, third := bars[i-2], bars[i-1], bars[i]
	fp, sp, tp := parts(first), parts(star), parts(third)
	if !fp.IsBull || fp.bodyPct() < longBodyPct {
		return 0
	}
	if sp.bodyPct() > starBodyPct || min(star.Open, star.Close) <= first.Close {
		return 0
	}
	if tp.IsBear && tp.bodyPct() >= longBodyPct && third.Close < fp.Mid {
		return -100
	}
	return 0
}

// threeWhiteSoldiers: three rising bullish bars, each opening inside the previous body.
func threeWhiteSoldiers(bars []model.PriceBar, i int) int {
	for k := i - 2; k <= i; k++ {
		p := parts(bars[k])
		if !p.IsBull || p.bodyPct() < soldierBodyPct {
			return 0
		}
		if k > i-2 {
			prev := bars[k-1]
			if bars[k].Open < prev.Open || bars[k].Open > prev.Close || bars[k].Close <= prev.Close {
				return 0
			}
		}
	}
	return 100
}

func threeBlackCrows(bars []model.PriceBar, i int) int {
	for k := i - 2; k <= i; k++ {
		p := parts(bars[k])
		if !p.IsBear || p.bodyPct() < soldierBodyPct {
			return 0
		}
		if k > i-2 {
			prev := bars[k-1]
			if bars[k].Open > prev.Open || bars[k].Open < prev.Close || bars[k].Close >= prev.Close {
				return 0
			}
		}
	}
	return -100
}
