package events

// ProducerOption customizes an EventProducer at construction time.
type ProducerOption func(e *EventProducer)

// WithOutputTopic overrides the topic job lifecycle events are published to.
func WithOutputTopic(topic string) ProducerOption {
	return func(e *EventProducer) {
		e.topic = topic
	}
}
