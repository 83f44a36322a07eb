// Package mqtt provides the MQTT client used by the Fibaro bridge.
//
// It wraps github.com/eclipse/paho.mqtt.golang with:
//   - Connection management with auto-reconnect and exponential backoff
//   - Subscription tracking, restored after every reconnect
//   - A retained Last Will on the bridge status topic
//   - Panic recovery around message handlers
//
// The bridge's topic layout is flat and rooted at "/":
//
//	/sys/<system_id>/<key>                configuration (retained, consumed)
//	/devices/zwave-<id>/controls/<name>   control values (retained)
//	/devices/zwave-<id>/controls/<name>/on commands (consumed)
//	/events/zwave-<id>/<name>             events (not retained)
//	/bridges/<system_id>/status           bridge health (retained, Last Will)
//
// Usage:
//
//	client, err := mqtt.Connect(cfg.MQTT, mqtt.BridgeStatusTopic(cfg.Bridge.SystemID))
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe("/sys/homa-fibaro/+", 1, func(topic string, payload []byte) error {
//	    return nil
//	})
package mqtt
