// Package btctax computes the tax position of bitcoin holdings kept in
// several accounts, owned by one or more users, with first-in-first-out lot
// accounting over a double-entry ledger.
//
// The main pieces are:
//   - Ledger: the declared accounts and the transactions between them, each
//     a set of postings that sum to zero in every currency. It is read from
//     and written to a JSONL file.
//   - Book: the balances and the bitcoin lots of every account after a
//     sequence of transactions. Transactions are applied atomically.
//   - AccountingSystem: a stateless engine replaying a history into a Book
//     to produce a Report with realized short and long-term gains, income,
//     gifts, fees and holdings, as of a given time.
//   - PriceSource: the BTC/USD prices the engine needs, supplied by the
//     caller. A missing price never aborts a computation, the figures that
//     depend on it are reported as unavailable.
//
// The accounting never fetches prices nor stores data. DecodePrices,
// DecodeCoinGeckoChart and FetchCoinGeckoChart build price tables for the
// btctax command.
package btctax
