// Package feed provides the reference price feed consumed next to the exchange session.
//
// A producer (CoinbaseTicker) streams best-bid/best-ask mid prices into a bounded
// channel. Drain empties that channel into a Latest cell that the session reads
// synchronously, so a slow consumer applies backpressure to the producer and never
// to the exchange session.
package feed
