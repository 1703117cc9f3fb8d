// Package awsclient wraps the AWS SDK v2 service clients used for optional
// cloud-evidence validation (spec.md §4.2 job_failed row's "Optional AWS
// validation" and pod_not_healthy's ECR image probe). Grounded on the
// teacher's provider-abstraction shape (internal/k8s/provider.go) applied
// to AWS instead of Kubernetes: one cached client bundle per account/region,
// exposing narrow, purpose-built methods rather than raw SDK passthrough.
package awsclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudtrail"
	cttypes "github.com/aws/aws-sdk-go-v2/service/cloudtrail/types"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	ecrtypes "github.com/aws/aws-sdk-go-v2/service/ecr/types"
	"github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Client bundles the AWS service clients used for evidence validation and
// the internal/tools aws.* tool set (spec.md §4.7).
type Client struct {
	S3   *s3.Client
	IAM  *iam.Client
	ECR  *ecr.Client
	EC2  *ec2.Client
	RDS  *rds.Client
	ELB  *elasticloadbalancingv2.Client
	CT   *cloudtrail.Client
}

// New builds a Client for region using the default credential chain
// (env vars, shared config, IRSA web-identity token when running in-cluster).
func New(ctx context.Context, region string) (*Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("awsclient: loading config for region %q: %w", region, err)
	}
	return &Client{
		S3:  s3.NewFromConfig(cfg),
		IAM: iam.NewFromConfig(cfg),
		ECR: ecr.NewFromConfig(cfg),
		EC2: ec2.NewFromConfig(cfg),
		RDS: rds.NewFromConfig(cfg),
		ELB: elasticloadbalancingv2.NewFromConfig(cfg),
		CT:  cloudtrail.NewFromConfig(cfg),
	}, nil
}

// errorCoder is implemented by smithy API errors (and aws-sdk-go-v2's
// generated typed errors); used to distinguish "not found" from transport
// failures without depending on a specific error package's concrete type.
type errorCoder interface{ ErrorCode() string }

func errorCode(err error) string {
	for err != nil {
		if ec, ok := err.(errorCoder); ok {
			return ec.ErrorCode()
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = unwrapper.Unwrap()
	}
	return ""
}

// BucketExists checks a bucket's existence and region via HeadBucket.
// Returns (exists, region, err); a 404/NotFound is treated as
// exists=false, err=nil — only transport/auth failures are errors.
func (c *Client) BucketExists(ctx context.Context, bucket string) (bool, string, error) {
	out, err := c.S3.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err != nil {
		switch errorCode(err) {
		case "NotFound", "NoSuchBucket":
			return false, "", nil
		}
		return false, "", fmt.Errorf("awsclient: head bucket %q: %w", bucket, err)
	}
	region := ""
	if out.BucketRegion != nil {
		region = *out.BucketRegion
	}
	return true, region, nil
}

// RoleTrustPolicy fetches an IAM role's assume-role trust policy document,
// used to validate IRSA (IAM Roles for Service Accounts) wiring.
func (c *Client) RoleTrustPolicy(ctx context.Context, roleName string) (map[string]any, error) {
	out, err := c.IAM.GetRole(ctx, &iam.GetRoleInput{RoleName: aws.String(roleName)})
	if err != nil {
		return nil, fmt.Errorf("awsclient: get role %q: %w", roleName, err)
	}
	if out.Role == nil || out.Role.AssumeRolePolicyDocument == nil {
		return nil, nil
	}
	return decodePolicyDocument(*out.Role.AssumeRolePolicyDocument)
}

// decodePolicyDocument URL-decodes and parses an IAM policy document, which
// the API returns as a URL-encoded JSON string.
func decodePolicyDocument(doc string) (map[string]any, error) {
	decoded, err := url.QueryUnescape(doc)
	if err != nil {
		return nil, fmt.Errorf("awsclient: url-decoding policy document: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(decoded), &out); err != nil {
		return nil, fmt.Errorf("awsclient: parsing policy document: %w", err)
	}
	return out, nil
}

// AttachedPolicyNames lists the managed policy names attached to roleName.
func (c *Client) AttachedPolicyNames(ctx context.Context, roleName string) ([]string, error) {
	out, err := c.IAM.ListAttachedRolePolicies(ctx, &iam.ListAttachedRolePoliciesInput{RoleName: aws.String(roleName)})
	if err != nil {
		return nil, fmt.Errorf("awsclient: list attached policies for role %q: %w", roleName, err)
	}
	names := make([]string, 0, len(out.AttachedPolicies))
	for _, p := range out.AttachedPolicies {
		if p.PolicyName != nil {
			names = append(names, *p.PolicyName)
		}
	}
	return names, nil
}

// InstanceState describes one EC2 instance's evidence-relevant state.
type InstanceState struct {
	InstanceID string
	State      string
	VpcID      string
	SubnetID   string
}

// EC2InstanceState looks up an instance's lifecycle state for node-related
// diagnosis (spec.md §4.7 aws.ec2).
func (c *Client) EC2InstanceState(ctx context.Context, instanceID string) (*InstanceState, error) {
	out, err := c.EC2.DescribeInstances(ctx, &ec2.DescribeInstancesInput{InstanceIds: []string{instanceID}})
	if err != nil {
		switch errorCode(err) {
		case "InvalidInstanceID.NotFound":
			return nil, nil
		}
		return nil, fmt.Errorf("awsclient: describe instances %q: %w", instanceID, err)
	}
	for _, r := range out.Reservations {
		for _, i := range r.Instances {
			s := &InstanceState{InstanceID: instanceID}
			if i.State != nil {
				s.State = string(i.State.Name)
			}
			if i.VpcId != nil {
				s.VpcID = *i.VpcId
			}
			if i.SubnetId != nil {
				s.SubnetID = *i.SubnetId
			}
			return s, nil
		}
	}
	return nil, nil
}

// VolumeState describes one EBS volume's evidence-relevant state.
type VolumeState struct {
	VolumeID   string
	State      string
	SizeGiB    int32
	Encrypted  bool
}

// EBSVolumeState looks up an EBS volume's state (aws.ebs).
func (c *Client) EBSVolumeState(ctx context.Context, volumeID string) (*VolumeState, error) {
	out, err := c.EC2.DescribeVolumes(ctx, &ec2.DescribeVolumesInput{VolumeIds: []string{volumeID}})
	if err != nil {
		switch errorCode(err) {
		case "InvalidVolume.NotFound":
			return nil, nil
		}
		return nil, fmt.Errorf("awsclient: describe volumes %q: %w", volumeID, err)
	}
	if len(out.Volumes) == 0 {
		return nil, nil
	}
	v := out.Volumes[0]
	s := &VolumeState{VolumeID: volumeID, State: string(v.State)}
	if v.Size != nil {
		s.SizeGiB = *v.Size
	}
	if v.Encrypted != nil {
		s.Encrypted = *v.Encrypted
	}
	return s, nil
}

// SecurityGroupRules describes one security group's ingress rules (aws.security_group).
type SecurityGroupRules struct {
	GroupID string
	Ingress []string
}

// SecurityGroupRules looks up a security group's ingress rule summaries.
func (c *Client) SecurityGroupRules(ctx context.Context, groupID string) (*SecurityGroupRules, error) {
	out, err := c.EC2.DescribeSecurityGroups(ctx, &ec2.DescribeSecurityGroupsInput{GroupIds: []string{groupID}})
	if err != nil {
		switch errorCode(err) {
		case "InvalidGroup.NotFound":
			return nil, nil
		}
		return nil, fmt.Errorf("awsclient: describe security groups %q: %w", groupID, err)
	}
	if len(out.SecurityGroups) == 0 {
		return nil, nil
	}
	sg := out.SecurityGroups[0]
	rules := &SecurityGroupRules{GroupID: groupID}
	for _, p := range sg.IpPermissions {
		rules.Ingress = append(rules.Ingress, summarizePermission(p))
	}
	return rules, nil
}

func summarizePermission(p ec2types.IpPermission) string {
	proto := "all"
	if p.IpProtocol != nil {
		proto = *p.IpProtocol
	}
	fromPort, toPort := int32(0), int32(0)
	if p.FromPort != nil {
		fromPort = *p.FromPort
	}
	if p.ToPort != nil {
		toPort = *p.ToPort
	}
	return fmt.Sprintf("%s:%d-%d", proto, fromPort, toPort)
}

// NATGatewayState describes a NAT gateway's health (aws.nat_gateway).
type NATGatewayState struct {
	NatGatewayID string
	State        string
}

func (c *Client) NATGatewayState(ctx context.Context, natGatewayID string) (*NATGatewayState, error) {
	out, err := c.EC2.DescribeNatGateways(ctx, &ec2.DescribeNatGatewaysInput{NatGatewayIds: []string{natGatewayID}})
	if err != nil {
		return nil, fmt.Errorf("awsclient: describe nat gateways %q: %w", natGatewayID, err)
	}
	if len(out.NatGateways) == 0 {
		return nil, nil
	}
	n := out.NatGateways[0]
	return &NATGatewayState{NatGatewayID: natGatewayID, State: string(n.State)}, nil
}

// VPCEndpointState describes a VPC endpoint's health (aws.vpc_endpoint).
type VPCEndpointState struct {
	VpcEndpointID string
	State         string
}

func (c *Client) VPCEndpointState(ctx context.Context, endpointID string) (*VPCEndpointState, error) {
	out, err := c.EC2.DescribeVpcEndpoints(ctx, &ec2.DescribeVpcEndpointsInput{VpcEndpointIds: []string{endpointID}})
	if err != nil {
		return nil, fmt.Errorf("awsclient: describe vpc endpoints %q: %w", endpointID, err)
	}
	if len(out.VpcEndpoints) == 0 {
		return nil, nil
	}
	e := out.VpcEndpoints[0]
	return &VPCEndpointState{VpcEndpointID: endpointID, State: string(e.State)}, nil
}

// RDSInstanceState describes an RDS instance's health (aws.rds).
type RDSInstanceState struct {
	DBInstanceIdentifier string
	Status               string
	MultiAZ              bool
}

func (c *Client) RDSInstanceState(ctx context.Context, dbInstanceID string) (*RDSInstanceState, error) {
	out, err := c.RDS.DescribeDBInstances(ctx, &rds.DescribeDBInstancesInput{DBInstanceIdentifier: aws.String(dbInstanceID)})
	if err != nil {
		switch errorCode(err) {
		case "DBInstanceNotFound":
			return nil, nil
		}
		return nil, fmt.Errorf("awsclient: describe db instances %q: %w", dbInstanceID, err)
	}
	if len(out.DBInstances) == 0 {
		return nil, nil
	}
	d := out.DBInstances[0]
	s := &RDSInstanceState{DBInstanceIdentifier: dbInstanceID}
	if d.DBInstanceStatus != nil {
		s.Status = *d.DBInstanceStatus
	}
	if d.MultiAZ != nil {
		s.MultiAZ = *d.MultiAZ
	}
	return s, nil
}

// TargetHealthSummary describes an ELBv2 target group's health (aws.elb).
type TargetHealthSummary struct {
	TargetGroupARN string
	HealthyCount   int
	UnhealthyCount int
	Reasons        []string
}

func (c *Client) TargetGroupHealth(ctx context.Context, targetGroupARN string) (*TargetHealthSummary, error) {
	out, err := c.ELB.DescribeTargetHealth(ctx, &elasticloadbalancingv2.DescribeTargetHealthInput{
		TargetGroupArn: aws.String(targetGroupARN),
	})
	if err != nil {
		return nil, fmt.Errorf("awsclient: describe target health %q: %w", targetGroupARN, err)
	}
	s := &TargetHealthSummary{TargetGroupARN: targetGroupARN}
	for _, d := range out.TargetHealthDescriptions {
		if d.TargetHealth == nil {
			continue
		}
		switch d.TargetHealth.State {
		case "healthy":
			s.HealthyCount++
		default:
			s.UnhealthyCount++
			if d.TargetHealth.Description != nil {
				s.Reasons = append(s.Reasons, *d.TargetHealth.Description)
			}
		}
	}
	return s, nil
}

// CloudTrailEvent is one lookup-events result (aws.cloudtrail).
type CloudTrailEvent struct {
	EventName string
	EventTime string
	Username  string
}

// RecentEvents looks up recent CloudTrail events for a resource name, for
// correlating infra changes with an incident window.
func (c *Client) RecentEvents(ctx context.Context, resourceName string, maxResults int32) ([]CloudTrailEvent, error) {
	if maxResults <= 0 {
		maxResults = 10
	}
	out, err := c.CT.LookupEvents(ctx, &cloudtrail.LookupEventsInput{
		LookupAttributes: []cttypes.LookupAttribute{{
			AttributeKey:   cttypes.LookupAttributeKeyResourceName,
			AttributeValue: aws.String(resourceName),
		}},
		MaxResults: aws.Int32(maxResults),
	})
	if err != nil {
		return nil, fmt.Errorf("awsclient: lookup events %q: %w", resourceName, err)
	}
	events := make([]CloudTrailEvent, 0, len(out.Events))
	for _, e := range out.Events {
		ev := CloudTrailEvent{}
		if e.EventName != nil {
			ev.EventName = *e.EventName
		}
		if e.EventTime != nil {
			ev.EventTime = e.EventTime.UTC().Format("2006-01-02T15:04:05Z")
		}
		if e.Username != nil {
			ev.Username = *e.Username
		}
		events = append(events, ev)
	}
	return events, nil
}

// ImageExists probes an ECR repository for the given tag.
func (c *Client) ImageExists(ctx context.Context, registryID, repository, tag string) (bool, error) {
	_, err := c.ECR.DescribeImages(ctx, &ecr.DescribeImagesInput{
		RegistryId:     aws.String(registryID),
		RepositoryName: aws.String(repository),
		ImageIds:       []ecrtypes.ImageIdentifier{{ImageTag: aws.String(tag)}},
	})
	if err != nil {
		switch errorCode(err) {
		case "ImageNotFoundException", "RepositoryNotFoundException":
			return false, nil
		}
		return false, fmt.Errorf("awsclient: describe images %s:%s: %w", repository, tag, err)
	}
	return true, nil
}
