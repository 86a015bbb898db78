package yahoo

// Yahoo API response types
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *apiError     `json:"error"`
	} `json:"chart"`
}

type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta       chartMeta  `json:"meta"`
	Timestamp  []int64    `json:"timestamp"`
	Indicators indicators `json:"indicators"`
}

type chartMeta struct {
	Symbol              string  `json:"symbol"`
	RegularMarketPrice  float64 `json:"regularMarketPrice"`
	RegularMarketVolume int64   `json:"regularMarketVolume"`
	RegularMarketTime   int64   `json:"regularMarketTime"`
	ChartPreviousClose  float64 `json:"chartPreviousClose"`
	PreviousClose       float64 `json:"previousClose"`
	GMTOffset           int64   `json:"gmtoffset"`
}

type indicators struct {
	Quote []quoteIndicator `json:"quote"`
}

type quoteIndicator struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*int64   `json:"volume"`
}

type searchResponse struct {
	Quotes []struct {
		Symbol    string `json:"symbol"`
		LongName  string `json:"longname"`
		ShortName string `json:"shortname"`
	} `json:"quotes"`
	News []struct {
		Title       string `json:"title"`
		Link        string `json:"link"`
		Summary     string `json:"summary"`
		Publisher   string `json:"publisher"`
		PublishTime int64  `json:"providerPublishTime"`
	} `json:"news"`
}

// summaryResponse keeps modules loosely typed; every numeric field arrives
// as {"raw": ..., "fmt": ...}.
type summaryResponse struct {
	QuoteSummary struct {
		Result []map[string]map[string]any `json:"result"`
		Error  *apiError                   `json:"error"`
	} `json:"quoteSummary"`
}

const summaryModules = "price,summaryDetail,defaultKeyStatistics,financialData,assetProfile"

// fundamentalFields maps quoteSummary fields onto overview keys.
var fundamentalFields = []struct {
	key, module, field string
}{
	{"Name", "price", "longName"},
	{"MarketCapitalization", "price", "marketCap"},
	{"PERatio", "summaryDetail", "trailingPE"},
	{"EPS", "defaultKeyStatistics", "trailingEps"},
	{"52WeekHigh", "summaryDetail", "fiftyTwoWeekHigh"},
	{"52WeekLow", "summaryDetail", "fiftyTwoWeekLow"},
	{"Beta", "summaryDetail", "beta"},
	{"DividendYield", "summaryDetail", "dividendYield"},
	{"DividendPerShare", "summaryDetail", "dividendRate"},
	{"ProfitMargin", "financialData", "profitMargins"},
	{"OperatingMarginTTM", "financialData", "operatingMargins"},
	{"ReturnOnAssetsTTM", "financialData", "returnOnAssets"},
	{"ReturnOnEquityTTM", "financialData", "returnOnEquity"},
	{"RevenueTTM", "financialData", "totalRevenue"},
	{"GrossProfitTTM", "financialData", "grossProfits"},
	{"Sector", "assetProfile", "sector"},
	{"Industry", "assetProfile", "industry"},
	{"Country", "assetProfile", "country"},
	{"BookValue", "defaultKeyStatistics", "bookValue"},
	{"AnalystTargetPrice", "financialData", "targetMeanPrice"},
	{"ShortRatio", "defaultKeyStatistics", "shortRatio"},
	{"ShortPercentOutstanding", "defaultKeyStatistics", "shortPercentOfFloat"},
	{"SharesOutstanding", "defaultKeyStatistics", "sharesOutstanding"},
	{"TrailingPE", "summaryDetail", "trailingPE"},
	{"ForwardPE", "summaryDetail", "forwardPE"},
	{"PEGRatio", "defaultKeyStatistics", "pegRatio"},
	{"PriceToBookRatio", "defaultKeyStatistics", "priceToBook"},
	{"QuarterlyEarningsGrowthYOY", "defaultKeyStatistics", "earningsQuarterlyGrowth"},
	{"QuarterlyRevenueGrowthYOY", "financialData", "revenueGrowth"},
}

// unwrap returns the raw value of a {"raw", "fmt"} pair, or v itself.
// Empty objects and empty strings become nil.
func unwrap(v any) any {
	switch t := v.(type) {
	case map[string]any:
		if raw, ok := t["raw"]; ok {
			return raw
		}
		return nil
	case string:
		if t == "" {
			return nil
		}
		return t
	default:
		return v
	}
}
