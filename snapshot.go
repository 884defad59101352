package ospfap

import (
	"encoding/binary"
	"fmt"
	"os"
)

// ExportOspf writes the four snapshot files described in spec.md
// section 6 (<node>.meta, .lsdb, .neighbors, .prefixes) under dir,
// capturing this router's area-leader flag, LSDBs, Full neighbors, and
// injected prefixes.
func (r *Router) ExportOspf(dir, node string) error {
	if err := writeFile(dir, node+".meta", r.exportMeta()); err != nil {
		return err
	}
	if err := writeFile(dir, node+".lsdb", r.exportLsdb()); err != nil {
		return err
	}
	if err := writeFile(dir, node+".neighbors", r.exportNeighbors()); err != nil {
		return err
	}
	if err := writeFile(dir, node+".prefixes", r.exportPrefixes()); err != nil {
		return err
	}
	return nil
}

func writeFile(dir, name string, b []byte) error {
	path := dir + "/" + name
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("ospfap: write snapshot %s: %w", path, err)
	}
	return nil
}

func (r *Router) exportMeta() []byte {
	b := make([]byte, 4)
	if r.IsAreaLeader {
		binary.BigEndian.PutUint32(b, 1)
	}
	return b
}

func (r *Router) allLsas() []LSA {
	var all []LSA
	for _, e := range r.RouterLsdb {
		all = append(all, LSA{Header: e.Header, Body: e.Body})
	}
	for _, e := range r.L1SummaryLsdb {
		all = append(all, LSA{Header: e.Header, Body: e.Body})
	}
	for _, e := range r.AreaLsdb {
		all = append(all, LSA{Header: e.Header, Body: e.Body})
	}
	for _, e := range r.L2SummaryLsdb {
		all = append(all, LSA{Header: e.Header, Body: e.Body})
	}
	return all
}

func (r *Router) exportLsdb() []byte {
	all := r.allLsas()
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(len(all)))
	for _, l := range all {
		b = append(b, marshalLSA(l)...)
	}
	return b
}

func (r *Router) exportNeighbors() []byte {
	ifaces := make([]*OspfInterface, 0, len(r.Interfaces))
	for _, i := range r.Interfaces {
		ifaces = append(ifaces, i)
	}

	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(len(ifaces)))
	for _, iface := range ifaces {
		var full []*OspfNeighbor
		for _, n := range iface.neighbors {
			if n.State == Full {
				full = append(full, n)
			}
		}
		cnt := make([]byte, 4)
		binary.BigEndian.PutUint32(cnt, uint32(len(full)))
		b = append(b, cnt...)
		for _, n := range full {
			rec := make([]byte, 12)
			binary.BigEndian.PutUint32(rec[0:4], uint32(n.RouterID))
			binary.BigEndian.PutUint32(rec[4:8], n.IpAddress)
			binary.BigEndian.PutUint32(rec[8:12], uint32(n.AreaID))
			b = append(b, rec...)
		}
	}
	return b
}

func (r *Router) exportPrefixes() []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(len(r.ExternalRoutes)))
	for _, er := range r.ExternalRoutes {
		rec := make([]byte, 20)
		binary.BigEndian.PutUint32(rec[0:4], uint32(er.IfIndex))
		binary.BigEndian.PutUint32(rec[4:8], er.DestNet)
		binary.BigEndian.PutUint32(rec[8:12], er.Mask)
		binary.BigEndian.PutUint32(rec[12:16], er.Gateway)
		binary.BigEndian.PutUint32(rec[16:20], er.Metric)
		b = append(b, rec...)
	}
	return b
}

// ImportOspf reads back the four files ExportOspf writes, replacing this
// router's LSDBs, Full-neighbor set, area-leader flag, and
// ExternalRoutes. It refuses a truncated or internally inconsistent
// file set outright, leaving current state untouched, per spec.md
// section 7.
func (r *Router) ImportOspf(dir, node string) error {
	meta, err := os.ReadFile(dir + "/" + node + ".meta")
	if err != nil || len(meta) < 4 {
		return fmt.Errorf("ospfap: read snapshot meta: %w", ErrImportMismatch)
	}
	lsdb, err := os.ReadFile(dir + "/" + node + ".lsdb")
	if err != nil {
		return fmt.Errorf("ospfap: read snapshot lsdb: %w", ErrImportMismatch)
	}
	neighbors, err := os.ReadFile(dir + "/" + node + ".neighbors")
	if err != nil {
		return fmt.Errorf("ospfap: read snapshot neighbors: %w", ErrImportMismatch)
	}
	prefixes, err := os.ReadFile(dir + "/" + node + ".prefixes")
	if err != nil {
		return fmt.Errorf("ospfap: read snapshot prefixes: %w", ErrImportMismatch)
	}

	lsas, err := parseLsdbFile(lsdb)
	if err != nil {
		return err
	}
	neighborSets, err := parseNeighborsFile(neighbors)
	if err != nil {
		return err
	}
	routes, err := parsePrefixesFile(prefixes)
	if err != nil {
		return err
	}
	if len(neighborSets) != len(r.Interfaces) {
		return fmt.Errorf("ospfap: snapshot has %d interfaces, router has %d: %w", len(neighborSets), len(r.Interfaces), ErrImportMismatch)
	}

	r.RouterLsdb = make(map[RouterID]lsdbEntry)
	r.L1SummaryLsdb = make(map[RouterID]lsdbEntry)
	r.AreaLsdb = make(map[AreaID]lsdbEntry)
	r.L2SummaryLsdb = make(map[AreaID]lsdbEntry)
	for _, l := range lsas {
		switch l.Header.Type {
		case RouterLSAs:
			r.RouterLsdb[l.Header.AdvertisingRouter] = lsdbEntry{Header: l.Header, Body: l.Body}
		case L1SummaryLSAs:
			r.L1SummaryLsdb[l.Header.AdvertisingRouter] = lsdbEntry{Header: l.Header, Body: l.Body}
		case AreaLSAs:
			r.AreaLsdb[AreaID(l.Header.LsID)] = lsdbEntry{Header: l.Header, Body: l.Body}
		case L2SummaryLSAs:
			r.L2SummaryLsdb[AreaID(l.Header.LsID)] = lsdbEntry{Header: l.Header, Body: l.Body}
		}
	}

	ifaces := make([]*OspfInterface, 0, len(r.Interfaces))
	for _, i := range r.Interfaces {
		ifaces = append(ifaces, i)
	}
	if len(neighborSets) == len(ifaces) {
		for i, iface := range ifaces {
			iface.ClearNeighbors()
			for _, rec := range neighborSets[i] {
				n := iface.AddNeighbor(rec.routerID, rec.ip, rec.area)
				n.State = Full
			}
		}
	}

	r.ExternalRoutes = routes
	r.IsAreaLeader = binary.BigEndian.Uint32(meta) != 0
	return nil
}

type importedNeighbor struct {
	routerID RouterID
	ip       uint32
	area     AreaID
}

func parseLsdbFile(b []byte) ([]LSA, error) {
	if len(b) < 4 {
		return nil, fmt.Errorf("ospfap: truncated lsdb snapshot: %w", ErrImportMismatch)
	}
	count := binary.BigEndian.Uint32(b[0:4])
	rest := b[4:]
	lsas := make([]LSA, 0, count)
	for i := uint32(0); i < count; i++ {
		l, n, err := parseLSA(rest)
		if err != nil || n == 0 {
			return nil, fmt.Errorf("ospfap: truncated lsdb snapshot entry %d: %w", i, ErrImportMismatch)
		}
		lsas = append(lsas, l)
		rest = rest[n:]
	}
	return lsas, nil
}

func parseNeighborsFile(b []byte) ([][]importedNeighbor, error) {
	if len(b) < 4 {
		return nil, fmt.Errorf("ospfap: truncated neighbors snapshot: %w", ErrImportMismatch)
	}
	nIfaces := binary.BigEndian.Uint32(b[0:4])
	off := 4
	out := make([][]importedNeighbor, 0, nIfaces)
	for i := uint32(0); i < nIfaces; i++ {
		if off+4 > len(b) {
			return nil, fmt.Errorf("ospfap: truncated neighbors snapshot: %w", ErrImportMismatch)
		}
		nNeighbors := binary.BigEndian.Uint32(b[off : off+4])
		off += 4
		recs := make([]importedNeighbor, 0, nNeighbors)
		for j := uint32(0); j < nNeighbors; j++ {
			if off+12 > len(b) {
				return nil, fmt.Errorf("ospfap: truncated neighbors snapshot: %w", ErrImportMismatch)
			}
			recs = append(recs, importedNeighbor{
				routerID: RouterID(binary.BigEndian.Uint32(b[off : off+4])),
				ip:       binary.BigEndian.Uint32(b[off+4 : off+8]),
				area:     AreaID(binary.BigEndian.Uint32(b[off+8 : off+12])),
			})
			off += 12
		}
		out = append(out, recs)
	}
	return out, nil
}

func parsePrefixesFile(b []byte) ([]ExternalRoute, error) {
	if len(b) < 4 {
		return nil, fmt.Errorf("ospfap: truncated prefixes snapshot: %w", ErrImportMismatch)
	}
	n := binary.BigEndian.Uint32(b[0:4])
	off := 4
	out := make([]ExternalRoute, 0, n)
	for i := uint32(0); i < n; i++ {
		if off+20 > len(b) {
			return nil, fmt.Errorf("ospfap: truncated prefixes snapshot: %w", ErrImportMismatch)
		}
		out = append(out, ExternalRoute{
			IfIndex: IfIndex(binary.BigEndian.Uint32(b[off : off+4])),
			DestNet: binary.BigEndian.Uint32(b[off+4 : off+8]),
			Mask:    binary.BigEndian.Uint32(b[off+8 : off+12]),
			Gateway: binary.BigEndian.Uint32(b[off+12 : off+16]),
			Metric:  binary.BigEndian.Uint32(b[off+16 : off+20]),
		})
		off += 20
	}
	return out, nil
}
