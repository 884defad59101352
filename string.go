package ospfap

import "strconv"

// String returns the string representation of an LSType.
func (t LSType) String() string {
	switch t {
	case RouterLSAs:
		return "RouterLSA"
	case NetworkLSAs:
		return "NetworkLSA"
	case SummaryLSAsIP:
		return "SummaryLSA-IP"
	case SummaryLSAsASBR:
		return "SummaryLSA-ASBR"
	case ASExternalLSAs:
		return "ASExternalLSA"
	case AreaLSAs:
		return "AreaLSA"
	case L1SummaryLSAs:
		return "L1SummaryLSA"
	case L2SummaryLSAs:
		return "L2SummaryLSA"
	default:
		return "LSType(" + strconv.Itoa(int(t)) + ")"
	}
}

// String returns the string representation of a NeighborState.
func (s NeighborState) String() string {
	switch s {
	case Down:
		return "Down"
	case Attempt:
		return "Attempt"
	case Init:
		return "Init"
	case TwoWay:
		return "TwoWay"
	case ExStart:
		return "ExStart"
	case Exchange:
		return "Exchange"
	case Loading:
		return "Loading"
	case Full:
		return "Full"
	default:
		return "NeighborState(" + strconv.Itoa(int(s)) + ")"
	}
}

// String returns the string representation of a packetType.
func (t packetType) String() string {
	switch t {
	case typeHello:
		return "Hello"
	case typeDatabaseDescription:
		return "DatabaseDescription"
	case typeLinkStateRequest:
		return "LinkStateRequest"
	case typeLinkStateUpdate:
		return "LinkStateUpdate"
	case typeLinkStateAcknowledgement:
		return "LinkStateAcknowledgement"
	default:
		return "packetType(" + strconv.Itoa(int(t)) + ")"
	}
}
