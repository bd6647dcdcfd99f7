// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package snapshot

import (
	"encoding/binary"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/m-lab/web100/conn"
	"github.com/m-lab/web100/errcode"
	"github.com/m-lab/web100/schema"
	"github.com/m-lab/web100/vartype"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

// fakeSource is an in-memory schema.Source keyed by "<cid>/<group>".
type fakeSource struct {
	ids  []int
	data map[string][]byte
	err  error
}

func (f *fakeSource) ConnectionIDs() ([]int, error) { return f.ids, nil }

func (f *fakeSource) ReadGroup(cid int, group string, buf []byte) error {
	if f.err != nil {
		return f.err
	}
	d, ok := f.data[fmt.Sprintf("%d/%s", cid, group)]
	if !ok {
		return errcode.NoConnection
	}
	copy(buf, d)
	return nil
}

var _ = Describe("Snapshot reads", func() {
	// The minimal two-group catalogue: a spec group and one general
	// group holding a single 4-byte variable.
	header := "1.0\n" +
		"/spec\n" +
		"LocalPort 0 9\n" +
		"LocalAddress 4 2\n" +
		"/tcp\n" +
		"CurMSS 0 1\n"

	var (
		agent *schema.Agent
		tcp   *schema.Group
		c     *schema.Connection
		snap  *S
	)

	BeforeEach(func() {
		var err error
		agent, err = schema.AttachLog(strings.NewReader(header))
		Expect(err).ToNot(HaveOccurred())

		tcp, err = agent.GroupFind("tcp")
		Expect(err).ToNot(HaveOccurred())
		Expect(tcp.Size()).To(Equal(4))

		c, err = agent.AddLogConnection(conn.Spec{})
		Expect(err).ToNot(HaveOccurred())
		Expect(c.CID()).To(Equal(schema.LogCID))

		snap, err = Alloc(tcp, c)
		Expect(err).ToNot(HaveOccurred())
	})

	It("allocates a zeroed buffer of the group size", func() {
		Expect(snap.Bytes()).To(Equal([]byte{0, 0, 0, 0}))
		Expect(snap.Group()).To(Equal(tcp))
		Expect(snap.Connection()).To(Equal(c))
	})

	It("reads a variable's raw bytes at its offset and width", func() {
		copy(snap.Bytes(), []byte{0x05, 0x00, 0x00, 0x00})

		v, err := tcp.VarFind("CurMSS")
		Expect(err).ToNot(HaveOccurred())

		raw, err := snap.Read(v)
		Expect(err).ToNot(HaveOccurred())
		Expect(raw).To(Equal([]byte{0x05, 0x00, 0x00, 0x00}))
		Expect(vartype.Render(v.Type(), raw)).To(Equal("5"))
	})

	It("returns a copy, not an alias", func() {
		v, err := tcp.VarFind("CurMSS")
		Expect(err).ToNot(HaveOccurred())

		raw, err := snap.Read(v)
		Expect(err).ToNot(HaveOccurred())
		raw[0] = 0xff
		Expect(snap.Bytes()[0]).To(BeZero())
	})

	It("rejects a variable from another group", func() {
		v, err := agent.Spec().VarFind("LocalPort")
		Expect(err).ToNot(HaveOccurred())

		_, err = snap.Read(v)
		Expect(errcode.Is(err, errcode.Inval)).To(BeTrue())
	})

	It("rejects allocation across catalogues", func() {
		other, err := schema.AttachLog(strings.NewReader(header))
		Expect(err).ToNot(HaveOccurred())
		otherConn, err := other.AddLogConnection(conn.Spec{})
		Expect(err).ToNot(HaveOccurred())

		_, err = Alloc(tcp, otherConn)
		Expect(errcode.Is(err, errcode.Inval)).To(BeTrue())
	})

	It("copies contents between snapshots of the same binding", func() {
		other, err := Alloc(tcp, c)
		Expect(err).ToNot(HaveOccurred())

		copy(snap.Bytes(), []byte{1, 2, 3, 4})
		Expect(other.CopyFrom(snap)).To(Succeed())
		Expect(other.Bytes()).To(Equal([]byte{1, 2, 3, 4}))

		// Cross-connection copies are rejected.
		c2, err := agent.AddLogConnection(conn.Spec{DstPort: 1})
		Expect(err).ToNot(HaveOccurred())
		stranger, err := Alloc(tcp, c2)
		Expect(err).ToNot(HaveOccurred())
		Expect(errcode.Is(stranger.CopyFrom(snap), errcode.Inval)).To(BeTrue())
	})

	It("rejects capture on a replayed catalogue", func() {
		err := snap.Take(&fakeSource{})
		Expect(errcode.Is(err, errcode.AgentType)).To(BeTrue())
	})
})

var _ = Describe("Snapshot capture", func() {
	header := "2.5.27 201001301335 net100\n" +
		"/spec\n" +
		"LocalAddressType 0 0 4\n" +
		"LocalAddress 4 8 17\n" +
		"LocalPort 24 9 2\n" +
		"RemAddress 28 8 17\n" +
		"RemPort 48 9 2\n" +
		"/read\n" +
		"SampleRTT 0 5 4\n" +
		"PktsOut 4 3 4\n"

	var (
		tdir  string
		agent *schema.Agent
		read  *schema.Group
		src   *fakeSource
		snap  *S
	)

	BeforeEach(func() {
		var err error
		tdir, err = ioutil.TempDir("", "snapshot_test")
		Expect(err).ToNot(HaveOccurred())
		Expect(ioutil.WriteFile(filepath.Join(tdir, "header"), []byte(header), 0644)).To(Succeed())

		agent, err = (&schema.FSSource{Root: tdir}).Attach()
		Expect(err).ToNot(HaveOccurred())

		spec := make([]byte, agent.Spec().Size())
		binary.LittleEndian.PutUint32(spec[0:], uint32(vartype.AddrTypeIPv4))
		copy(spec[4:], []byte{192, 168, 1, 10})
		binary.LittleEndian.PutUint16(spec[24:], 8080)
		copy(spec[28:], []byte{10, 0, 0, 1})
		binary.LittleEndian.PutUint16(spec[48:], 443)

		src = &fakeSource{
			ids: []int{3},
			data: map[string][]byte{
				"3/spec": spec,
				"3/read": {0x10, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00},
			},
		}
		Expect(agent.RefreshConnections(src)).To(Succeed())

		read, err = agent.GroupFind("read")
		Expect(err).ToNot(HaveOccurred())

		c, err := agent.ConnectionLookup(3)
		Expect(err).ToNot(HaveOccurred())

		snap, err = Alloc(read, c)
		Expect(err).ToNot(HaveOccurred())
	})

	AfterEach(func() {
		if tdir != "" {
			_ = os.RemoveAll(tdir)
			tdir = ""
		}
	})

	It("captures the group region", func() {
		Expect(snap.Take(src)).To(Succeed())
		Expect(snap.Bytes()).To(Equal([]byte{0x10, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00}))
	})

	It("leaves previous contents intact when capture fails", func() {
		Expect(snap.Take(src)).To(Succeed())

		src.err = errcode.File
		err := snap.Take(src)
		Expect(errcode.Is(err, errcode.File)).To(BeTrue())
		Expect(snap.Bytes()).To(Equal([]byte{0x10, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00}))
	})

	Context("deltas", func() {
		var a, b *S
		var rtt, pkts *schema.Var

		BeforeEach(func() {
			var err error
			a, err = Alloc(read, snap.Connection())
			Expect(err).ToNot(HaveOccurred())
			b, err = Alloc(read, snap.Connection())
			Expect(err).ToNot(HaveOccurred())

			rtt, err = read.VarFind("SampleRTT")
			Expect(err).ToNot(HaveOccurred())
			pkts, err = read.VarFind("PktsOut")
			Expect(err).ToNot(HaveOccurred())
		})

		It("is zero between identical snapshots", func() {
			Expect(a.Take(src)).To(Succeed())
			Expect(b.CopyFrom(a)).To(Succeed())

			d, err := Delta(rtt, a, b)
			Expect(err).ToNot(HaveOccurred())
			Expect(d).To(Equal([]byte{0, 0, 0, 0}))

			d, err = Delta(rtt, a, a)
			Expect(err).ToNot(HaveOccurred())
			Expect(d).To(Equal([]byte{0, 0, 0, 0}))
		})

		It("subtracts at the variable's width", func() {
			binary.LittleEndian.PutUint32(b.Bytes()[0:], 100)
			binary.LittleEndian.PutUint32(a.Bytes()[0:], 250)
			binary.LittleEndian.PutUint32(a.Bytes()[4:], 7)

			d, err := Delta(rtt, a, b)
			Expect(err).ToNot(HaveOccurred())
			Expect(binary.LittleEndian.Uint32(d)).To(BeEquivalentTo(150))

			d, err = Delta(pkts, a, b)
			Expect(err).ToNot(HaveOccurred())
			Expect(binary.LittleEndian.Uint32(d)).To(BeEquivalentTo(7))
		})

		It("wraps on reversed arguments", func() {
			binary.LittleEndian.PutUint32(a.Bytes()[0:], 100)
			binary.LittleEndian.PutUint32(b.Bytes()[0:], 250)

			d, err := Delta(rtt, a, b)
			Expect(err).ToNot(HaveOccurred())
			Expect(binary.LittleEndian.Uint32(d)).To(BeEquivalentTo(4294967146))
		})

		It("rejects non-integer widths", func() {
			addr, err := agent.Spec().VarFind("LocalAddress")
			Expect(err).ToNot(HaveOccurred())

			specSnap, err := Alloc(agent.Spec(), snap.Connection())
			Expect(err).ToNot(HaveOccurred())

			_, err = Delta(addr, specSnap, specSnap)
			Expect(errcode.Is(err, errcode.Inval)).To(BeTrue())
		})

		It("rejects snapshots of different groups", func() {
			specSnap, err := Alloc(agent.Spec(), snap.Connection())
			Expect(err).ToNot(HaveOccurred())

			_, err = Delta(rtt, a, specSnap)
			Expect(errcode.Is(err, errcode.Inval)).To(BeTrue())
		})
	})
})

func TestSnapshot(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Snapshot Tests")
}
