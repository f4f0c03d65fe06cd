// Package queue moves outgoing notification emails through RabbitMQ so
// that request handlers never wait on an SMTP relay.
package queue

import "time"

// EmailQueueName is the durable queue that carries notify.Email payloads.
const EmailQueueName = "notifications.email"

// retryHeader counts how often a message has been redelivered after a
// failed send.
const retryHeader = "x-send-attempts"

// maxRedeliveries bounds how many times a message is put back on the queue
// before it is dropped.
const maxRedeliveries = 3

// publishTimeout bounds a single publish round-trip to the broker.
const publishTimeout = 5 * time.Second
