// Package mqtt provides the broker connection used by pico-link sessions.
//
// This package manages:
//   - One broker connection per Client, with a Last Will and Testament
//   - QoS 1 publishing with acknowledgment timeouts
//   - Subscriptions whose messages are dispatched by CheckMsg on the
//     caller's goroutine
//   - The fixed pico-link topics and payloads
//
// # Architecture
//
// The two endpoints never talk to each other directly:
//
//	Sensor (PicoA) → stm/led/cmd → Broker → Actuator (PicoB)
//	Actuator (PicoB) → stm/led/ack → Broker
//	Each endpoint → stm/{device}/status (retained online/offline)
//
// A Client does not reconnect. Reconnection policy belongs to the session
// manager, which discards a failed Client and dials a new one so that the
// will and the retained "online" status are re-established every time.
//
// # Usage
//
//	will := mqtt.Will{Topic: mqtt.Topics{}.DeviceStatus("devB"), Payload: []byte(mqtt.StatusOffline), QoS: 1, Retained: true}
//	client, err := mqtt.Dial(cfg.MQTT, will)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.TopicCommand, mqtt.QoSAtLeastOnce,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
//
//	for {
//	    if err := client.CheckMsg(); err != nil {
//	        break // link lost; dial a replacement
//	    }
//	    time.Sleep(20 * time.Millisecond)
//	}
package mqtt
