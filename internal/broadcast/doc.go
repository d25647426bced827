// Package broadcast fans domain events out to the live connections whose
// role matches an audience predicate. Delivery is best effort and isolated
// per recipient: a slow or dying client never blocks or aborts delivery to
// the rest of the audience, and the router performs no redelivery.
package broadcast
