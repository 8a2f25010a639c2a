// ABOUTME: Known base assets and the alias table used by the symbol tagger
// ABOUTME: Every tagged symbol must be a member of the registry

package symbols

// knownSymbols is the registry of base assets the tagger may emit.
var knownSymbols = map[string]struct{}{
	"BTC": {}, "ETH": {}, "XRP": {}, "ADA": {}, "SOL": {}, "DOT": {}, "DOGE": {},
	"AVAX": {}, "MATIC": {}, "LINK": {}, "LTC": {}, "UNI": {}, "BNB": {}, "XLM": {},
	"ATOM": {}, "XMR": {}, "TRX": {}, "TON": {}, "SHIB": {},
}

// aliases maps lower-case names and tickers to their symbol. Tickers that are
// also everyday words (ada, sol, dot, link, uni, atom, ton) are left out; they
// are only recognized in their uppercase or $-prefixed form.
var aliases = map[string]string{
	"bitcoin": "BTC", "btc": "BTC",
	"ethereum": "ETH", "ether": "ETH", "eth": "ETH",
	"ripple": "XRP", "xrp": "XRP",
	"cardano": "ADA",
	"solana": "SOL",
	"polkadot": "DOT",
	"dogecoin": "DOGE", "doge": "DOGE",
	"avalanche": "AVAX", "avax": "AVAX",
	"polygon": "MATIC", "matic": "MATIC",
	"chainlink": "LINK",
	"litecoin": "LTC", "ltc": "LTC",
	"uniswap": "UNI",
	"binance coin": "BNB", "bnb": "BNB",
	"stellar": "XLM", "xlm": "XLM",
	"cosmos": "ATOM",
	"monero": "XMR", "xmr": "XMR",
	"tron": "TRX", "trx": "TRX",
	"toncoin": "TON",
	"shiba inu": "SHIB", "shib": "SHIB",
}

// stopwords are uppercase tokens that are never treated as tickers.
var stopwords = map[string]struct{}{
	"US": {}, "UK": {}, "USA": {}, "CEO": {}, "CTO": {}, "CFO": {}, "API": {}, "USD": {}, "EUR": {},
}

// quoteAssets are appended to a base symbol to form trading pairs.
var quoteAssets = []string{"USDT", "USDC", "BUSD", "USD"}

// IsKnown reports whether sym is in the registry.
func IsKnown(sym string) bool {
	_, ok := knownSymbols[sym]
	return ok
}
