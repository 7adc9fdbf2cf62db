package pricing

// CapClass buckets instruments by market capitalization; smaller caps move
// more on the same impact.
type CapClass string

const (
	CapLarge  CapClass = "large"
	CapMedium CapClass = "medium"
	CapSmall  CapClass = "small"
)

// Profile holds the static per-instrument characteristics the realistic
// model consumes.
type Profile struct {
	Name            string
	Sector          string
	CapClass        CapClass
	Volatility      float64 // intrinsic volatility factor in [0, 1]
	NewsSensitivity float64 // how strongly the instrument reacts to news
	SectorWeight    float64 // weight of the instrument inside its sector
	BaseVolume      int64
}

// profiles covers the tracked KRX universe.
var profiles = map[string]Profile{
	"005930": {Name: "삼성전자", Sector: "IT/전자", CapClass: CapLarge, Volatility: 0.85, NewsSensitivity: 0.9, SectorWeight: 0.25, BaseVolume: 15000000},
	"000660": {Name: "SK하이닉스", Sector: "IT/전자", CapClass: CapLarge, Volatility: 0.95, NewsSensitivity: 0.95, SectorWeight: 0.20, BaseVolume: 4000000},
	"011070": {Name: "LG이노텍", Sector: "IT/전자", CapClass: CapMedium, Volatility: 0.80, NewsSensitivity: 0.75, SectorWeight: 0.10, BaseVolume: 500000},

	"005380": {Name: "현대차", Sector: "자동차", CapClass: CapLarge, Volatility: 0.70, NewsSensitivity: 0.75, SectorWeight: 0.30, BaseVolume: 1500000},
	"005490": {Name: "POSCO홀딩스", Sector: "철강/소재", CapClass: CapLarge, Volatility: 0.75, NewsSensitivity: 0.70, SectorWeight: 0.35, BaseVolume: 800000},
	"012450": {Name: "한화에어로스페이스", Sector: "방산", CapClass: CapMedium, Volatility: 0.90, NewsSensitivity: 0.85, SectorWeight: 0.40, BaseVolume: 700000},

	"051910": {Name: "LG화학", Sector: "화학", CapClass: CapLarge, Volatility: 0.85, NewsSensitivity: 0.80, SectorWeight: 0.30, BaseVolume: 600000},
	"006400": {Name: "삼성SDI", Sector: "화학", CapClass: CapLarge, Volatility: 0.85, NewsSensitivity: 0.85, SectorWeight: 0.25, BaseVolume: 500000},
	"373220": {Name: "LG에너지솔루션", Sector: "화학", CapClass: CapLarge, Volatility: 0.90, NewsSensitivity: 0.90, SectorWeight: 0.30, BaseVolume: 900000},
	"096770": {Name: "SK이노베이션", Sector: "에너지", CapClass: CapMedium, Volatility: 0.80, NewsSensitivity: 0.75, SectorWeight: 0.30, BaseVolume: 700000},
	"015760": {Name: "한국전력", Sector: "에너지", CapClass: CapLarge, Volatility: 0.50, NewsSensitivity: 0.60, SectorWeight: 0.40, BaseVolume: 2000000},

	"055550": {Name: "신한지주", Sector: "금융", CapClass: CapLarge, Volatility: 0.55, NewsSensitivity: 0.65, SectorWeight: 0.20, BaseVolume: 1200000},
	"086790": {Name: "하나금융지주", Sector: "금융", CapClass: CapLarge, Volatility: 0.55, NewsSensitivity: 0.65, SectorWeight: 0.15, BaseVolume: 1000000},
	"105560": {Name: "KB금융", Sector: "금융", CapClass: CapLarge, Volatility: 0.55, NewsSensitivity: 0.65, SectorWeight: 0.20, BaseVolume: 1100000},
	"138930": {Name: "BNK금융지주", Sector: "금융", CapClass: CapMedium, Volatility: 0.60, NewsSensitivity: 0.60, SectorWeight: 0.05, BaseVolume: 900000},
	"323410": {Name: "카카오뱅크", Sector: "금융", CapClass: CapMedium, Volatility: 0.85, NewsSensitivity: 0.85, SectorWeight: 0.10, BaseVolume: 1500000},

	"028260": {Name: "삼성물산", Sector: "건설", CapClass: CapLarge, Volatility: 0.65, NewsSensitivity: 0.60, SectorWeight: 0.30, BaseVolume: 600000},
	"009540": {Name: "HD한국조선해양", Sector: "물류/운송", CapClass: CapMedium, Volatility: 0.75, NewsSensitivity: 0.70, SectorWeight: 0.30, BaseVolume: 400000},
	"010140": {Name: "삼성중공업", Sector: "물류/운송", CapClass: CapMedium, Volatility: 0.80, NewsSensitivity: 0.70, SectorWeight: 0.25, BaseVolume: 3000000},

	"017670": {Name: "SK텔레콤", Sector: "통신", CapClass: CapLarge, Volatility: 0.45, NewsSensitivity: 0.55, SectorWeight: 0.40, BaseVolume: 500000},
	"030200": {Name: "KT", Sector: "통신", CapClass: CapLarge, Volatility: 0.45, NewsSensitivity: 0.55, SectorWeight: 0.35, BaseVolume: 700000},

	"035420": {Name: "NAVER", Sector: "IT/전자", CapClass: CapLarge, Volatility: 0.80, NewsSensitivity: 0.85, SectorWeight: 0.15, BaseVolume: 800000},
	"035720": {Name: "카카오", Sector: "IT/전자", CapClass: CapLarge, Volatility: 0.90, NewsSensitivity: 0.90, SectorWeight: 0.10, BaseVolume: 2500000},

	"068270": {Name: "셀트리온", Sector: "바이오", CapClass: CapLarge, Volatility: 0.95, NewsSensitivity: 0.90, SectorWeight: 0.35, BaseVolume: 900000},
	"207940": {Name: "삼성바이오로직스", Sector: "바이오", CapClass: CapLarge, Volatility: 0.90, NewsSensitivity: 0.85, SectorWeight: 0.40, BaseVolume: 150000},

	"097950": {Name: "CJ제일제당", Sector: "소비재", CapClass: CapMedium, Volatility: 0.50, NewsSensitivity: 0.55, SectorWeight: 0.30, BaseVolume: 200000},
}

// LookupProfile returns the static profile for a ticker.
func LookupProfile(ticker string) (Profile, bool) {
	p, ok := profiles[ticker]
	return p, ok
}

// ProfiledTickers returns every ticker with a static profile.
func ProfiledTickers() []string {
	out := make([]string, 0, len(profiles))
	for t := range profiles {
		out = append(out, t)
	}
	return out
}
