package centrifuge

// SubscriptionTokenCache lets a Subscription reuse a previously fetched
// private-channel token instead of calling GetSubscriptionToken on every
// (re)subscribe. Implementations live in package tokencache; this interface
// is declared here, not there, so tokencache can import centrifuge without
// creating a cycle.
type SubscriptionTokenCache interface {
	Get(channel string) (token string, ok bool)
	Set(channel, token string)
}
