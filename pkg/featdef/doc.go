// Package featdef reads device templates from YAML and turns them into
// factories.
//
// A template describes one device and its features:
//
//	name: Kitchen dimmer
//	location: Kitchen
//	address: zw-12
//	features:
//	  - name: Level
//	    display: highlight
//	    controls:
//	      - {type: button, value: 0, label: "Off", use: "off"}
//	      - {type: slider, range: {min: 1, max: 99, suffix: "%"}, use: dim}
//	      - {type: button, value: 100, label: "On", use: "on"}
//	    graphics:
//	      - {image: images/off.png, value: 0}
//	      - {image: images/on.png, range: {min: 1, max: 100}}
//
// Control types and uses are the names printed by status.ControlType and
// status.ControlUse. Misc flags use the names of model.MiscFlag.
package featdef
