// Package mqtt provides MQTT client connectivity for Gray Logic Shades.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Publishing with QoS and retained state
//   - Topic subscriptions, restored after reconnect
//   - Last Will and Testament (LWT) for offline detection
//
// # Architecture
//
// The shade service sits between Gray Logic Core and the shade hub. Both
// sides speak MQTT through the same broker:
//
//	Core ──command/shade/{id}──►  Shade   ──native/{hub}/{id}/set──────►  Hub
//	Core ◄──state/shade/{id}───  Service  ◄──native/{hub}/{id}/position──  Hub
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.AllShadeCommands(), 1,
//	    func(topic string, payload []byte) error {
//	        id, _ := mqtt.Topics{}.ShadeIDFromCommand(topic)
//	        log.Printf("command for %s: %s", id, payload)
//	        return nil
//	    })
package mqtt
