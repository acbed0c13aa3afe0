package fingerprint

// FallbackOUIs covers vendors common on home networks, used until the
// registry has been downloaded.
var FallbackOUIs = map[string]string{
	"00:03:93": "Apple", "3C:22:FB": "Apple", "AC:DE:48": "Apple", "F0:DB:F8": "Apple",
	"B8:AC:6F": "Samsung", "34:23:BA": "Samsung", "78:47:1D": "Samsung",
	"54:60:09": "Google", "F4:F5:D8": "Google", "94:EB:2C": "Google",
	"00:FC:8B": "Amazon", "0C:47:C9": "Amazon", "44:65:0D": "Amazon",
	"00:03:FF": "Microsoft", "00:15:5D": "Microsoft", "28:18:78": "Microsoft",
	"00:02:B3": "Intel", "3C:A9:F4": "Intel", "8C:8D:28": "Intel",
	"14:CC:20": "TP-Link", "50:C7:BF": "TP-Link", "60:E3:27": "TP-Link",
	"B8:27:EB": "Raspberry Pi", "DC:A6:32": "Raspberry Pi", "E4:5F:01": "Raspberry Pi",
	"00:50:56": "VMware", "00:0C:29": "VMware", "08:00:27": "VirtualBox",
	"00:14:6C": "Netgear", "20:4E:7F": "Netgear", "84:1B:5E": "Netgear",
	"04:18:D6": "Ubiquiti", "18:E8:29": "Ubiquiti", "44:D9:E7": "Ubiquiti",
	"00:17:88": "Philips Hue", "EC:B5:FA": "Philips Hue",
	"00:0E:58": "Sonos", "34:7E:5C": "Sonos",
	"24:0A:C4": "Espressif", "30:AE:A4": "Espressif", "A4:CF:12": "Espressif",
	"E4:8D:8C": "MikroTik", "4C:5E:0C": "MikroTik",
	"00:E0:4C": "Realtek",
	"08:05:81": "Roku", "B0:A7:37": "Roku",
}
