package resources

import (
	"github.com/pulumi/pulumi-cloudflare/sdk/v5/go/cloudflare"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"k8s.io/apimachinery/pkg/util/validation"

	"github.com/imamik/k8stacks/internal/util/naming"
)

// autoTTL tells Cloudflare to pick the TTL.
const autoTTL = 1

const recordComment = "managed by k8stacks"

var supportedRecordTypes = map[string]bool{
	"A":     true,
	"AAAA":  true,
	"CNAME": true,
	"TXT":   true,
}

// DNSRecordOptions describes a Cloudflare DNS record for {sub}.{domain}.
type DNSRecordOptions struct {
	CommonOptions

	ZoneID pulumi.StringInput
	Domain string

	// Subdomain is empty or "@" for the zone apex.
	Subdomain string

	// Type defaults to A.
	Type    string
	Content pulumi.StringInput

	Proxied bool
	// TTL in seconds; 0 means automatic. Proxied records must stay automatic.
	TTL int
}

// DNSRecord is the handle returned by NewDNSRecord.
type DNSRecord struct {
	Record   *cloudflare.Record
	Hostname string
}

func (o DNSRecordOptions) recordType() string {
	if o.Type == "" {
		return "A"
	}
	return o.Type
}

func (o DNSRecordOptions) ttl() int {
	if o.TTL == 0 {
		return autoTTL
	}
	return o.TTL
}

func (o DNSRecordOptions) validate() error {
	if err := o.CommonOptions.validate("dns record"); err != nil {
		return err
	}
	if o.ZoneID == nil {
		return optionsErrorf("dns record", o.Name, "zone id is required")
	}
	if o.Content == nil {
		return optionsErrorf("dns record", o.Name, "content is required")
	}
	if errs := validation.IsDNS1123Subdomain(o.Domain); len(errs) > 0 {
		return optionsErrorf("dns record", o.Name, "invalid domain %q", o.Domain)
	}
	if !supportedRecordTypes[o.recordType()] {
		return optionsErrorf("dns record", o.Name, "unsupported record type %q", o.Type)
	}
	if o.Proxied && o.ttl() != autoTTL {
		return optionsErrorf("dns record", o.Name, "proxied records use automatic TTL")
	}
	return nil
}

// recordName is the name sent to Cloudflare: the FQDN or "@" for the apex.
func (o DNSRecordOptions) recordName() string {
	host := naming.Host(o.Subdomain, o.Domain)
	if naming.RecordName(host, o.Domain) == naming.Apex {
		return naming.Apex
	}
	return host
}

// NewDNSRecord declares a Cloudflare record named o.Name.
func NewDNSRecord(ctx *pulumi.Context, o DNSRecordOptions) (*DNSRecord, error) {
	if err := o.validate(); err != nil {
		return nil, err
	}

	record, err := cloudflare.NewRecord(ctx, o.Name, &cloudflare.RecordArgs{
		ZoneId:  o.ZoneID,
		Name:    pulumi.String(o.recordName()),
		Type:    pulumi.String(o.recordType()),
		Content: o.Content.ToStringOutput().ToStringPtrOutput(),
		Ttl:     pulumi.IntPtr(o.ttl()),
		Proxied: pulumi.BoolPtr(o.Proxied),
		Comment: pulumi.StringPtr(recordComment),
	}, o.Options()...)
	if err != nil {
		return nil, err
	}

	return &DNSRecord{
		Record:   record,
		Hostname: naming.Host(o.Subdomain, o.Domain),
	}, nil
}
