package tools

import (
	"context"
	"strings"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/tarkyaio/tarka/internal/awsclient"
	tarkaerrors "github.com/tarkyaio/tarka/internal/errors"
	"github.com/tarkyaio/tarka/internal/k8sclient"
)

// irsaAnnotation is the standard EKS IRSA service-account annotation naming
// the IAM role a pod's pods assume (spec.md §4.7 aws.iam_role_permissions).
const irsaAnnotation = "eks.amazonaws.com/role-arn"

// RegisterAWS wires the aws.* tool set (spec.md §4.7: ec2, ebs, elb, rds,
// ecr, security_group, nat_gateway, vpc_endpoint, cloudtrail,
// s3_bucket_location, iam_role_permissions) against the shared
// awsclient.Registry used by C2's optional AWS validation.
func RegisterAWS(r *Registry, aws *awsclient.Registry, clusters *k8sclient.Registry, regionForCluster func(cluster string) string) {
	region := func(inv *Invocation) string {
		if regionForCluster != nil {
			if reg := regionForCluster(inv.Cluster); reg != "" {
				return reg
			}
		}
		return "us-east-1"
	}

	r.Register("aws.s3_bucket_location", false, func(ctx context.Context, inv *Invocation, args map[string]any) Result {
		bucket, ok := ArgString(args, "bucket")
		if !ok || bucket == "" {
			return Result{OK: false, Error: tarkaerrors.CodeCaseIDRequired}
		}
		client, err := aws.Get(ctx, region(inv))
		if err != nil {
			return errResult(err)
		}
		exists, bucketRegion, err := client.BucketExists(ctx, bucket)
		if err != nil {
			return errResult(err)
		}
		return Result{OK: true, Result: map[string]any{"exists": exists, "region": bucketRegion}}
	})

	r.Register("aws.iam_role_permissions", false, func(ctx context.Context, inv *Invocation, args map[string]any) Result {
		client, err := aws.Get(ctx, region(inv))
		if err != nil {
			return errResult(err)
		}
		roleName, _ := ArgString(args, "role_name")
		if roleName == "" {
			sa, _ := ArgString(args, "service_account")
			ns, _ := ArgString(args, "namespace")
			if sa == "" || ns == "" {
				return Result{OK: false, Error: tarkaerrors.CodeCaseIDRequired}
			}
			roleARN, lookupErr := irsaRoleARN(ctx, clusters, inv.Cluster, ns, sa)
			if lookupErr != nil {
				return errResult(lookupErr)
			}
			if roleARN == "" {
				return Result{OK: false, Error: tarkaerrors.CodeNoIAMRoleAnnotation}
			}
			roleName = roleNameFromARN(roleARN)
		}
		trust, err := client.RoleTrustPolicy(ctx, roleName)
		if err != nil {
			return errResult(err)
		}
		policies, err := client.AttachedPolicyNames(ctx, roleName)
		if err != nil {
			return errResult(err)
		}
		return Result{OK: true, Result: map[string]any{
			"role_name":     roleName,
			"trust_policy":  trust,
			"attached_policies": policies,
		}}
	})

	r.Register("aws.ec2", false, func(ctx context.Context, inv *Invocation, args map[string]any) Result {
		id, ok := ArgString(args, "instance_id")
		if !ok || id == "" {
			return Result{OK: false, Error: tarkaerrors.CodeCaseIDRequired}
		}
		client, err := aws.Get(ctx, region(inv))
		if err != nil {
			return errResult(err)
		}
		state, err := client.EC2InstanceState(ctx, id)
		if err != nil {
			return errResult(err)
		}
		if state == nil {
			return Result{OK: true, Result: nil}
		}
		return Result{OK: true, Result: state}
	})

	r.Register("aws.ebs", false, func(ctx context.Context, inv *Invocation, args map[string]any) Result {
		id, ok := ArgString(args, "volume_id")
		if !ok || id == "" {
			return Result{OK: false, Error: tarkaerrors.CodeCaseIDRequired}
		}
		client, err := aws.Get(ctx, region(inv))
		if err != nil {
			return errResult(err)
		}
		state, err := client.EBSVolumeState(ctx, id)
		if err != nil {
			return errResult(err)
		}
		if state == nil {
			return Result{OK: true, Result: nil}
		}
		return Result{OK: true, Result: state}
	})

	r.Register("aws.security_group", false, func(ctx context.Context, inv *Invocation, args map[string]any) Result {
		id, ok := ArgString(args, "group_id")
		if !ok || id == "" {
			return Result{OK: false, Error: tarkaerrors.CodeCaseIDRequired}
		}
		client, err := aws.Get(ctx, region(inv))
		if err != nil {
			return errResult(err)
		}
		rules, err := client.SecurityGroupRules(ctx, id)
		if err != nil {
			return errResult(err)
		}
		if rules == nil {
			return Result{OK: true, Result: nil}
		}
		return Result{OK: true, Result: rules}
	})

	r.Register("aws.nat_gateway", false, func(ctx context.Context, inv *Invocation, args map[string]any) Result {
		id, ok := ArgString(args, "nat_gateway_id")
		if !ok || id == "" {
			return Result{OK: false, Error: tarkaerrors.CodeCaseIDRequired}
		}
		client, err := aws.Get(ctx, region(inv))
		if err != nil {
			return errResult(err)
		}
		state, err := client.NATGatewayState(ctx, id)
		if err != nil {
			return errResult(err)
		}
		if state == nil {
			return Result{OK: true, Result: nil}
		}
		return Result{OK: true, Result: state}
	})

	r.Register("aws.vpc_endpoint", false, func(ctx context.Context, inv *Invocation, args map[string]any) Result {
		id, ok := ArgString(args, "vpc_endpoint_id")
		if !ok || id == "" {
			return Result{OK: false, Error: tarkaerrors.CodeCaseIDRequired}
		}
		client, err := aws.Get(ctx, region(inv))
		if err != nil {
			return errResult(err)
		}
		state, err := client.VPCEndpointState(ctx, id)
		if err != nil {
			return errResult(err)
		}
		if state == nil {
			return Result{OK: true, Result: nil}
		}
		return Result{OK: true, Result: state}
	})

	r.Register("aws.rds", false, func(ctx context.Context, inv *Invocation, args map[string]any) Result {
		id, ok := ArgString(args, "db_instance_identifier")
		if !ok || id == "" {
			return Result{OK: false, Error: tarkaerrors.CodeCaseIDRequired}
		}
		client, err := aws.Get(ctx, region(inv))
		if err != nil {
			return errResult(err)
		}
		state, err := client.RDSInstanceState(ctx, id)
		if err != nil {
			return errResult(err)
		}
		if state == nil {
			return Result{OK: true, Result: nil}
		}
		return Result{OK: true, Result: state}
	})

	r.Register("aws.elb", false, func(ctx context.Context, inv *Invocation, args map[string]any) Result {
		arn, ok := ArgString(args, "target_group_arn")
		if !ok || arn == "" {
			return Result{OK: false, Error: tarkaerrors.CodeCaseIDRequired}
		}
		client, err := aws.Get(ctx, region(inv))
		if err != nil {
			return errResult(err)
		}
		health, err := client.TargetGroupHealth(ctx, arn)
		if err != nil {
			return errResult(err)
		}
		return Result{OK: true, Result: health}
	})

	r.Register("aws.ecr", false, func(ctx context.Context, inv *Invocation, args map[string]any) Result {
		repo, _ := ArgString(args, "repository")
		tag, _ := ArgString(args, "tag")
		registryID, _ := ArgString(args, "registry_id")
		if repo == "" || tag == "" {
			return Result{OK: false, Error: tarkaerrors.CodeCaseIDRequired}
		}
		client, err := aws.Get(ctx, region(inv))
		if err != nil {
			return errResult(err)
		}
		exists, err := client.ImageExists(ctx, registryID, repo, tag)
		if err != nil {
			return errResult(err)
		}
		return Result{OK: true, Result: map[string]any{"exists": exists}}
	})

	r.Register("aws.cloudtrail", false, func(ctx context.Context, inv *Invocation, args map[string]any) Result {
		resource, ok := ArgString(args, "resource_name")
		if !ok || resource == "" {
			return Result{OK: false, Error: tarkaerrors.CodeCaseIDRequired}
		}
		limit := ArgInt(args, "limit", 10)
		client, err := aws.Get(ctx, region(inv))
		if err != nil {
			return errResult(err)
		}
		events, err := client.RecentEvents(ctx, resource, int32(limit))
		if err != nil {
			return errResult(err)
		}
		if len(events) == 0 {
			return Result{OK: true, Result: nil}
		}
		return Result{OK: true, Result: events}
	})
}

// irsaRoleARN extracts the service account's IRSA role annotation.
func irsaRoleARN(ctx context.Context, clusters *k8sclient.Registry, cluster, namespace, serviceAccount string) (string, error) {
	cli, err := clusters.Get(cluster)
	if err != nil {
		return "", err
	}
	var sa *corev1.ServiceAccount
	err = cli.Do(ctx, func(ctx context.Context) error {
		got, err := cli.Clientset.CoreV1().ServiceAccounts(namespace).Get(ctx, serviceAccount, metav1.GetOptions{})
		if err != nil {
			return err
		}
		sa = got
		return nil
	})
	if err != nil {
		return "", err
	}
	return sa.Annotations[irsaAnnotation], nil
}

func roleNameFromARN(arn string) string {
	idx := strings.LastIndex(arn, "/")
	if idx == -1 {
		return arn
	}
	return arn[idx+1:]
}
