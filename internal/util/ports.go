package util

// monitoredPorts is the listening order of the sensor.
var monitoredPorts = []int{
	21,   // FTP
	22,   // SSH
	23,   // Telnet
	25,   // SMTP
	53,   // DNS
	80,   // HTTP
	110,  // POP3
	143,  // IMAP
	443,  // HTTPS
	993,  // IMAPS
	995,  // POP3S
	1433, // SQL Server
	1521, // Oracle
	3306, // MySQL
	3389, // RDP
	5432, // PostgreSQL
	5900, // VNC
	6379, // Redis
	8080, // HTTP Alt
	8443, // HTTPS Alt
}

var serviceNames = map[int]string{
	21: "ftp", 22: "ssh", 23: "telnet", 25: "smtp", 53: "dns",
	80: "http", 110: "pop3", 143: "imap", 443: "https", 993: "imaps",
	995: "pop3s", 1433: "mssql", 1521: "oracle", 3306: "mysql", 3389: "rdp",
	5432: "postgresql", 5900: "vnc", 6379: "redis", 8080: "http-alt", 8443: "https-alt",
}

// MonitoredPorts returns a copy of the default monitored port list.
func MonitoredPorts() []int {
	ports := make([]int, len(monitoredPorts))
	copy(ports, monitoredPorts)
	return ports
}

// ServiceName returns the well-known service label for a port.
func ServiceName(port int) string {
	if name, ok := serviceNames[port]; ok {
		return name
	}
	return "unknown"
}
